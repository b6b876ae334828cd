package domain

import dErrors "membergate/pkg/domain-errors"

// ConsentType labels the kind of processing a consent covers. Closed set so
// stores and services get exhaustiveness instead of free-form strings.
type ConsentType string

const (
	ConsentTypeDataProcessing ConsentType = "DataProcessing"
	ConsentTypeMarketing      ConsentType = "Marketing"
	ConsentTypeAnalytics      ConsentType = "Analytics"
	ConsentTypeDataSharing    ConsentType = "DataSharing"
	ConsentTypeNotifications  ConsentType = "Notifications"
	ConsentTypeCookies        ConsentType = "Cookies"
	ConsentTypeProfiling      ConsentType = "Profiling"
	ConsentTypeThirdPartyData ConsentType = "ThirdPartyData"
)

var validConsentTypes = map[ConsentType]bool{
	ConsentTypeDataProcessing: true,
	ConsentTypeMarketing:      true,
	ConsentTypeAnalytics:      true,
	ConsentTypeDataSharing:    true,
	ConsentTypeNotifications:  true,
	ConsentTypeCookies:        true,
	ConsentTypeProfiling:      true,
	ConsentTypeThirdPartyData: true,
}

// ParseConsentType constructs a ConsentType from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseConsentType(s string) (ConsentType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "consent type cannot be empty")
	}
	t := ConsentType(s)
	if !validConsentTypes[t] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid consent type")
	}
	return t, nil
}

func (t ConsentType) IsValid() bool  { return validConsentTypes[t] }
func (t ConsentType) String() string { return string(t) }

// LegalBasis is the GDPR Article 6 ground a consent record relies on.
type LegalBasis string

const (
	LegalBasisConsent             LegalBasis = "Consent"
	LegalBasisContract            LegalBasis = "Contract"
	LegalBasisLegalObligation     LegalBasis = "LegalObligation"
	LegalBasisVitalInterests      LegalBasis = "VitalInterests"
	LegalBasisPublicTask          LegalBasis = "PublicTask"
	LegalBasisLegitimateInterests LegalBasis = "LegitimateInterests"
)

var validLegalBases = map[LegalBasis]bool{
	LegalBasisConsent:             true,
	LegalBasisContract:            true,
	LegalBasisLegalObligation:     true,
	LegalBasisVitalInterests:      true,
	LegalBasisPublicTask:          true,
	LegalBasisLegitimateInterests: true,
}

// ParseLegalBasis constructs a LegalBasis from external input.
func ParseLegalBasis(s string) (LegalBasis, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "legal basis cannot be empty")
	}
	b := LegalBasis(s)
	if !validLegalBases[b] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid legal basis")
	}
	return b, nil
}

func (b LegalBasis) IsValid() bool  { return validLegalBases[b] }
func (b LegalBasis) String() string { return string(b) }

// DataCategory classifies the personal data covered by a consent record.
type DataCategory string

const (
	DataCategoryPersonal      DataCategory = "Personal"
	DataCategorySensitive     DataCategory = "Sensitive"
	DataCategoryFinancial     DataCategory = "Financial"
	DataCategoryHealth        DataCategory = "Health"
	DataCategoryBiometric     DataCategory = "Biometric"
	DataCategoryBehavioral    DataCategory = "Behavioral"
	DataCategoryLocation      DataCategory = "Location"
	DataCategoryCommunication DataCategory = "Communication"
)

var validDataCategories = map[DataCategory]bool{
	DataCategoryPersonal:      true,
	DataCategorySensitive:     true,
	DataCategoryFinancial:     true,
	DataCategoryHealth:        true,
	DataCategoryBiometric:     true,
	DataCategoryBehavioral:    true,
	DataCategoryLocation:      true,
	DataCategoryCommunication: true,
}

// ParseDataCategory constructs a DataCategory from external input.
func ParseDataCategory(s string) (DataCategory, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "data category cannot be empty")
	}
	c := DataCategory(s)
	if !validDataCategories[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid data category")
	}
	return c, nil
}

func (c DataCategory) IsValid() bool  { return validDataCategories[c] }
func (c DataCategory) String() string { return string(c) }

// ConsentStatus is derived from a consent record's fields on read; it is never
// stored.
type ConsentStatus string

const (
	ConsentStatusPending   ConsentStatus = "Pending"
	ConsentStatusGranted   ConsentStatus = "Granted"
	ConsentStatusWithdrawn ConsentStatus = "Withdrawn"
	ConsentStatusExpired   ConsentStatus = "Expired"
	ConsentStatusInactive  ConsentStatus = "Inactive"
)

func (s ConsentStatus) String() string { return string(s) }
