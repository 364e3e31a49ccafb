package importer

import "strings"

// dublinCoreLabels maps Dublin Core local names to the display labels we
// store in revision metadata. Raw RDF fields whose local name is not in
// this table are dropped during normalization. The table is fixed at
// compile time and never mutated.
var dublinCoreLabels = map[string]string{
	"abstract":                     "Abstract",
	"accessRights":                 "Access Rights",
	"accrualMethod":                "Accrual Method",
	"accrualPeriodicity":           "Accrual Periodicity",
	"accrualPolicy":                "Accrual Policy",
	"alternative":                  "Alternative Title",
	"audience":                     "Audience",
	"available":                    "Date Available",
	"bibliographicCitation":        "Bibliographic Citation",
	"conformsTo":                   "Conforms To",
	"contributor":                  "Contributor",
	"coverage":                     "Coverage",
	"created":                      "Date Created",
	"creator":                      "Creator",
	"date":                         "Date",
	"dateAccepted":                 "Date Accepted",
	"dateCopyrighted":              "Date Copyrighted",
	"dateSubmitted":                "Date Submitted",
	"educationLevel":               "Audience Education Level",
	"extent":                       "Extent",
	"format":                       "Format",
	"hasFormat":                    "Has Format",
	"hasPart":                      "Has Part",
	"hasVersion":                   "Has Version",
	"identifier":                   "Identifier",
	"instructionalMethod":          "Instructional Method",
	"isFormatOf":                   "Is Format Of",
	"isPartOf":                     "Is Part Of",
	"isReferencedBy":               "Is Referenced By",
	"isReplacedBy":                 "Is Replaced By",
	"isRequiredBy":                 "Is Required By",
	"issued":                       "Date Issued",
	"isVersionOf":                  "Is Version Of",
	"language":                     "Language",
	"license":                      "License",
	"mediator":                     "Mediator",
	"medium":                       "Medium",
	"modified":                     "Date Modified",
	"provenance":                   "Provenance",
	"publisher":                    "Publisher",
	"references":                   "References",
	"relation":                     "Relation",
	"replaces":                     "Replaces",
	"requires":                     "Requires",
	"rights":                       "Rights",
	"rightsHolder":                 "Rights Holder",
	"source":                       "Source",
	"spatial":                      "Spatial Coverage",
	"subject":                      "Subject",
	"tableOfContents":              "Table Of Contents",
	"temporal":                     "Temporal Coverage",
	"valid":                        "Date Valid",
	"description":                  "Description",
	"title":                        "Title",
	"type":                         "Type",
	"DCMIType":                     "DCMI Type Vocabulary",
	"DDC":                          "DDC",
	"IMT":                          "IMT",
	"LCC":                          "LCC",
	"LCSH":                         "LCSH",
	"MESH":                         "MeSH",
	"NLM":                          "NLM",
	"TGN":                          "TGN",
	"UDC":                          "UDC",
	"Box":                          "DCMI Box",
	"ISO3166":                      "ISO 3166",
	"ISO639-2":                     "ISO 639-2",
	"ISO639-3":                     "ISO 639-3",
	"Period":                       "DCMI Period",
	"Point":                        "DCMI Point",
	"RFC1766":                      "RFC 1766",
	"RFC3066":                      "RFC 3066",
	"RFC4646":                      "RFC 4646",
	"RFC5646":                      "RFC 5646",
	"URI":                          "URI",
	"W3CDTF":                       "W3C-DTF",
	"Agent":                        "Agent",
	"AgentClass":                   "Agent Class",
	"BibliographicResource":        "Bibliographic Resource",
	"FileFormat":                   "File Format",
	"Frequency":                    "Frequency",
	"Jurisdiction":                 "Jurisdiction",
	"LicenseDocument":              "License Document",
	"LinguisticSystem":             "Linguistic System",
	"Location":                     "Location",
	"LocationPeriodOrJurisdiction": "Location, Period, or Jurisdiction",
	"MediaType":                    "Media Type",
	"MediaTypeOrExtent":            "Media Type or Extent",
	"MethodOfAccrual":              "Method of Accrual",
	"MethodOfInstruction":          "Method of Instruction",
	"PeriodOfTime":                 "Period of Time",
	"PhysicalMedium":               "Physical Medium",
	"PhysicalResource":             "Physical Resource",
	"Policy":                       "Policy",
	"ProvenanceStatement":          "Provenance Statement",
	"RightsStatement":              "Rights Statement",
	"SizeOrDuration":               "Size or Duration",
	"Standard":                     "Standard",
	"Collection":                   "Collection",
	"Dataset":                      "Dataset",
	"Event":                        "Event",
	"Image":                        "Image",
	"InteractiveResource":          "Interactive Resource",
	"MovingImage":                  "Moving Image",
	"PhysicalObject":               "Physical Object",
	"Service":                      "Service",
	"Software":                     "Software",
	"Sound":                        "Sound",
	"StillImage":                   "Still Image",
	"Text":                         "Text",
	"domainIncludes":               "Domain Includes",
	"memberOf":                     "Member Of",
	"rangeIncludes":                "Range Includes",
	"VocabularyEncodingScheme":     "Vocabulary Encoding Scheme",
}

// RawField is one (tag, text) pair lifted from an RDF description before
// normalization. Tag may still carry a namespace qualifier, either in
// expanded "{uri}local" form or prefixed "dc:local" form.
type RawField struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// MetadataField is one normalized (label, value) entry.
type MetadataField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Metadata is an ordered label→value collection. Order is first-insertion
// order; setting an existing label overwrites its value in place. It
// serializes as a JSON array so the order survives the cache round-trip.
type Metadata []MetadataField

// Set inserts or overwrites a label (last write wins).
func (m *Metadata) Set(label, value string) {
	for i := range *m {
		if (*m)[i].Label == label {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, MetadataField{Label: label, Value: value})
}

// Get returns the value for label and whether it is present.
func (m Metadata) Get(label string) (string, bool) {
	for _, f := range m {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

// localName strips any namespace qualifier from an XML tag, keeping only
// the part after the last '}' or ':'.
func localName(tag string) string {
	if i := strings.LastIndexByte(tag, '}'); i >= 0 {
		return tag[i+1:]
	}
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// NormalizeRDF maps raw RDF fields into display metadata: recognized
// Dublin Core local names are renamed to their label, everything else is
// dropped. Input order is preserved.
func NormalizeRDF(fields []RawField) Metadata {
	var out Metadata
	for _, f := range fields {
		if label, ok := dublinCoreLabels[localName(f.Tag)]; ok {
			out.Set(label, f.Text)
		}
	}
	return out
}
