// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Constant columns of every correspondence row.
const (
	CorrespondenceCert       = "CERT"
	CorrespondenceDepartment = "JPL"
	CorrespondenceDocType    = "2º CITACIÓN-ROL"
)

// CorrespondenceHeaders lists the spreadsheet column names in order.
var CorrespondenceHeaders = []string{
	"N°",
	"NUMERO GUIA",
	"CERT.",
	"DEPTO.",
	"TIPO DCTO",
	"DCTO.",
	"DESTINATARIO",
	"DIRECCIÓN",
	"CIUDAD/COMUNA",
}

// CorrespondenceRow is one line of the mailing-correspondence sheet, derived
// from a CitationRecord.
type CorrespondenceRow struct {
	Seq           int    `json:"N°" yaml:"seq"`
	TrackingGuide string `json:"NUMERO GUIA" yaml:"tracking_guide"`
	Cert          string `json:"CERT." yaml:"cert"`
	Department    string `json:"DEPTO." yaml:"department"`
	DocType       string `json:"TIPO DCTO" yaml:"doc_type"`
	DocCode       string `json:"DCTO." yaml:"doc_code"`
	Addressee     string `json:"DESTINATARIO" yaml:"addressee"`
	Address       string `json:"DIRECCIÓN" yaml:"address"`
	Municipality  string `json:"CIUDAD/COMUNA" yaml:"municipality"`
}

// Values returns the row's cells in header order.
func (r CorrespondenceRow) Values() []any {
	return []any{
		r.Seq,
		r.TrackingGuide,
		r.Cert,
		r.Department,
		r.DocType,
		r.DocCode,
		r.Addressee,
		r.Address,
		r.Municipality,
	}
}
