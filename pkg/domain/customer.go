package domain

import dErrors "membergate/pkg/domain-errors"

// CustomerSegment classifies a customer for the CX side of the system.
type CustomerSegment string

const (
	SegmentPremium  CustomerSegment = "Premium"
	SegmentStandard CustomerSegment = "Standard"
	SegmentBasic    CustomerSegment = "Basic"
)

var validSegments = map[CustomerSegment]bool{
	SegmentPremium:  true,
	SegmentStandard: true,
	SegmentBasic:    true,
}

// ParseCustomerSegment constructs a CustomerSegment from external input.
func ParseCustomerSegment(s string) (CustomerSegment, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "segment cannot be empty")
	}
	seg := CustomerSegment(s)
	if !validSegments[seg] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid customer segment")
	}
	return seg, nil
}

func (s CustomerSegment) IsValid() bool  { return validSegments[s] }
func (s CustomerSegment) String() string { return string(s) }

// CustomerStatus is the customer account lifecycle state.
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "Active"
	CustomerStatusInactive  CustomerStatus = "Inactive"
	CustomerStatusSuspended CustomerStatus = "Suspended"
)

var validCustomerStatuses = map[CustomerStatus]bool{
	CustomerStatusActive:    true,
	CustomerStatusInactive:  true,
	CustomerStatusSuspended: true,
}

// ParseCustomerStatus constructs a CustomerStatus from external input.
func ParseCustomerStatus(s string) (CustomerStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := CustomerStatus(s)
	if !validCustomerStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid customer status")
	}
	return st, nil
}

func (s CustomerStatus) IsValid() bool  { return validCustomerStatuses[s] }
func (s CustomerStatus) String() string { return string(s) }

// CommunicationChannel is a preferred contact channel for a customer.
type CommunicationChannel string

const (
	ChannelPhone  CommunicationChannel = "Phone"
	ChannelChat   CommunicationChannel = "Chat"
	ChannelEmail  CommunicationChannel = "Email"
	ChannelSms    CommunicationChannel = "Sms"
	ChannelSocial CommunicationChannel = "Social"
)

var validChannels = map[CommunicationChannel]bool{
	ChannelPhone:  true,
	ChannelChat:   true,
	ChannelEmail:  true,
	ChannelSms:    true,
	ChannelSocial: true,
}

// ParseCommunicationChannel constructs a CommunicationChannel from external input.
func ParseCommunicationChannel(s string) (CommunicationChannel, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "channel cannot be empty")
	}
	ch := CommunicationChannel(s)
	if !validChannels[ch] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid communication channel")
	}
	return ch, nil
}

func (c CommunicationChannel) IsValid() bool  { return validChannels[c] }
func (c CommunicationChannel) String() string { return string(c) }
