// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractedRecord is one complaint paired with its registration certificate,
// as returned by the AI backend. JSON names follow the provider schema.
type ExtractedRecord struct {
	// Plate is the vehicle's unique plate identifier (e.g. "RHPT-14").
	Plate string `json:"placaPatenteUnica" yaml:"plate"`

	// Infraction is the infraction description from the complaint.
	Infraction string `json:"infraccion" yaml:"infraction"`

	// Location is where the infraction happened.
	Location string `json:"lugar" yaml:"location"`

	// Date is the infraction date as DD-MM-YYYY text.
	Date string `json:"fecha" yaml:"date"`

	// Time is the infraction time as HH:MM text.
	Time string `json:"hora" yaml:"time"`

	// ProcessNumber is the court process number printed on the complaint.
	ProcessNumber string `json:"procesoNumero" yaml:"process_number"`

	// Fields below come from the registration certificate.
	OwnerName     string `json:"propietario" yaml:"owner_name"`
	TaxID         string `json:"rut" yaml:"tax_id"`
	Make          string `json:"marca" yaml:"make"`
	Model         string `json:"modelo" yaml:"model"`
	Color         string `json:"color" yaml:"color"`
	Year          string `json:"ano" yaml:"year"`
	VehicleType   string `json:"tipoVehiculo" yaml:"vehicle_type"`
	ChassisNumber string `json:"numeroChasis" yaml:"chassis_number"`
	EngineNumber  string `json:"numeroMotor" yaml:"engine_number"`
	Street        string `json:"domicilioCalle" yaml:"street"`
	StreetNumber  string `json:"domicilioNumero" yaml:"street_number"`
	Municipality  string `json:"comuna" yaml:"municipality"`
}

// CitationRecord is an ExtractedRecord with its sequential oficio number.
// The number is assigned once at normalization and never changes.
type CitationRecord struct {
	ExtractedRecord `yaml:",inline"`

	// OficioNumber is the decimal document number (start + index).
	OficioNumber string `json:"oficioNumber" yaml:"oficio_number"`
}

// SourceFiles names the two uploaded documents of an extraction run.
type SourceFiles struct {
	Complaints   string `json:"denuncia" yaml:"complaints"`
	Certificates string `json:"ciav" yaml:"certificates"`
}
