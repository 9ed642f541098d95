// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"strings"

	"github.com/pdiddy/citaciones/internal/citation"
	"github.com/pdiddy/citaciones/internal/session"
)

// Page geometry in points: 8.5in x 13in.
const (
	PageWidthPt  float64 = 8.5 * 72
	PageHeightPt float64 = 13 * 72
)

const (
	legalBasis        = "La presente citación se emite en conformidad a lo dispuesto en la Ley Nº 18.287 sobre Procedimiento ante los Juzgados de Policía Local y la Ley de Tránsito N°18.290, por la infracción cursada y detallada en la presente."
	legalWarning      = "Deberá presentarse con su Cédula de identidad. La no comparecencia injustificada podrá dar lugar a que se proceda en su rebeldía, pudiendo despacharse en su contra una orden de arresto, según lo dispuesto en la ley."
	citationTitle     = "CITACIÓN AL JUZGADO DE POLICÍA LOCAL"
	ownerHeading      = "1. DATOS DEL PROPIETARIO Y VEHÍCULO"
	infractionHeading = "2. DETALLES DE LA INFRACCIÓN"
)

// Item is a labelled value on the citation.
type Item struct {
	Label string
	Value string
}

// Page is a citation with every display string resolved. Both the raster
// surface and the markup render from it.
type Page struct {
	Oficio   string
	Process  string
	City     string
	DateLine string

	Municipality string
	Court        string
	Title        string

	OwnerHeading      string
	OwnerLeft         []Item
	OwnerRight        []Item
	InfractionHeading string
	Infraction        []Item

	HearingIntro   string
	HearingWhen    string
	HearingAddress string
	LegalBasis     string
	LegalWarning   string

	SecretaryName  string
	SecretaryTitle string
	Footer         string

	LogoPath      string
	SignaturePath string
}

// NewPage resolves a session view into display strings.
func NewPage(v session.View) Page {
	rec, cfg := v.Record, v.Template
	plate := citation.FormatPlate(rec.Plate)

	return Page{
		Oficio:   v.Edits.Oficio,
		Process:  v.Edits.Process,
		City:     strings.ToUpper(cfg.City),
		DateLine: v.Edits.DateLine,

		Municipality: cfg.Municipality,
		Court:        cfg.Court,
		Title:        citationTitle,

		OwnerHeading: ownerHeading,
		OwnerLeft: []Item{
			{"Propietario:", rec.OwnerName},
			{"Domicilio:", rec.Street + " " + rec.StreetNumber},
			{"Placa Patente:", plate},
			{"Marca/Modelo:", rec.Make + " / " + rec.Model},
			{"Color:", rec.Color},
		},
		OwnerRight: []Item{
			{"Rut:", rec.TaxID},
			{"Comuna:", rec.Municipality},
			{"Tipo de Vehículo:", rec.VehicleType},
			{"Año:", rec.Year},
		},
		InfractionHeading: infractionHeading,
		Infraction: []Item{
			{"Placa Patente Denunciada:", plate},
			{"Infracción:", strings.ToUpper(rec.Infraction)},
			{"Lugar:", strings.ToUpper(rec.Location)},
			{"Fecha:", citation.FormatInfractionDate(rec.Date)},
			{"Hora:", citation.FormatTimeAmPm(rec.Time)},
		},

		HearingIntro:   "Por orden de este Tribunal, se cita a Ud. a comparecer a la audiencia que se celebrará el día",
		HearingWhen:    citation.FormatHearingDate(cfg.HearingDate) + " a las " + cfg.HearingTime + " horas",
		HearingAddress: ", en la secretaría del JUZGADO DE POLICÍA LOCAL, Ubicado en " + cfg.HearingAddress + ".",
		LegalBasis:     legalBasis,
		LegalWarning:   legalWarning,

		SecretaryName:  cfg.SecretaryName,
		SecretaryTitle: strings.ToUpper(cfg.SecretaryTitle),
		Footer:         cfg.FooterContact,

		LogoPath:      v.LogoPath,
		SignaturePath: v.SignaPath,
	}
}
