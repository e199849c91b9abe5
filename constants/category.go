package constants

import (
	"strings"
)

type Category string

const (
	RegistrationCertificate Category = "registration_certificate"
	TonnageCertificate      Category = "tonnage_certificate"
	InsurancePolicy         Category = "insurance_policy"
	SurveyReport            Category = "survey_report"
	SafetyCertificate       Category = "safety_certificate"
	CrewDocument            Category = "crew_document"
	Invoice                 Category = "invoice"
	Unknown                 Category = "unknown"
)

var allCategories = []Category{
	RegistrationCertificate,
	TonnageCertificate,
	InsurancePolicy,
	SurveyReport,
	SafetyCertificate,
	CrewDocument,
	Invoice,
	Unknown,
}

// DocumentType is the enum sent to the document-understanding service.
type DocumentType string

const (
	DocTypeRegistration DocumentType = "YACHT_REGISTRATION"
	DocTypeTonnage      DocumentType = "TONNAGE_CERTIFICATE"
	DocTypeInsurance    DocumentType = "INSURANCE_POLICY"
	DocTypeSurvey       DocumentType = "SURVEY_REPORT"
	DocTypeSafety       DocumentType = "SAFETY_CERTIFICATE"
	DocTypeGeneric      DocumentType = "GENERIC_DOCUMENT"
)

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// DocumentTypeFor maps a category onto the OCR service enum.
func DocumentTypeFor(c Category) DocumentType {
	switch c {
	case RegistrationCertificate:
		return DocTypeRegistration
	case TonnageCertificate:
		return DocTypeTonnage
	case InsurancePolicy:
		return DocTypeInsurance
	case SurveyReport:
		return DocTypeSurvey
	case SafetyCertificate:
		return DocTypeSafety
	default:
		return DocTypeGeneric
	}
}

func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Unknown, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	// synonyms map
	synonyms := map[string]Category{
		"registration":            RegistrationCertificate,
		"certificate_of_registry": RegistrationCertificate,
		"registry":                RegistrationCertificate,
		"yacht_registration":      RegistrationCertificate,
		"tonnage":                 TonnageCertificate,
		"insurance":               InsurancePolicy,
		"survey":                  SurveyReport,
		"condition_survey":        SurveyReport,
		"safety":                  SafetyCertificate,
		"safety_management":       SafetyCertificate,
		"crew":                    CrewDocument,
		"crew_list":               CrewDocument,
		"bill":                    Invoice,
		"receipt":                 Invoice,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Unknown, false
}
