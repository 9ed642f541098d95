// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/json"
	"text/template"
)

// countPrompt asks for the number of complaints only.
const countPrompt = `Analiza los documentos PDF proporcionados.
Cuenta cuántas "Denuncias de Parte Empadronado por Infracción de Tránsito" distintas hay en total en los documentos.
Devuelve únicamente el número total como un objeto JSON con una sola clave "count". Por ejemplo: {"count": 3}.
No incluyas texto adicional ni explicaciones.`

// extractionPrompt asks the model to pair every complaint with its
// certificate by plate and extract the citation fields.
const extractionPrompt = `Actúa como un experto en la lectura de documentos de tránsito chilenos. Tu objetivo es procesar documentos de forma masiva.
Analiza los dos documentos PDF proporcionados. Un PDF contiene MÚLTIPLES "Denuncias de Parte Empadronado por Infracción de Tránsito" y el otro PDF contiene MÚLTIPLES "Certificados de Inscripciones y Anotaciones Vigentes (CIAV)".

Tu tarea es procesar sistemáticamente CADA UNA de las denuncias que encuentres en el primer documento. Para cada denuncia:
1.  Identifica la Placa Patente Única.
2.  Busca el Certificado (CIAV) correspondiente a esa Placa Patente en el segundo documento.
3.  Una vez encontrada la pareja, extrae la siguiente información:
    - Del documento de denuncia: Placa Patente Única (formateada como XXXX-NN, ej. RHPT-14), infracción denunciada, lugar, fecha, hora y el "PROCESO N°". El "PROCESO N°" es crucial y se encuentra para cada denuncia, usualmente en un recuadro en la parte superior del documento de denuncia que dice "JUZGADO DE POLICIA LOCAL".
    - Del documento CIAV: nombre del propietario, RUT, marca, modelo, color, año, tipo de vehículo, número de chasis, número de motor, domicilio (separando calle y número) y comuna.
4.  Añade el objeto JSON completo con toda la información extraída al array de resultados.

Repite este proceso para TODAS las denuncias presentes en el documento. Devuelve TODOS los registros encontrados como un array de objetos JSON, utilizando exclusivamente el schema proporcionado. Si no encuentras ninguna citación, devuelve un array vacío. No incluyas texto adicional, resúmenes ni explicaciones.`

var countSchema = Schema{
	"type": "OBJECT",
	"properties": map[string]any{
		"count": map[string]any{"type": "INTEGER", "description": "El número total de denuncias encontradas."},
	},
	"required": []string{"count"},
}

// citationFields lists the record fields in schema order with their
// descriptions.
var citationFields = []struct{ name, desc string }{
	{"placaPatenteUnica", "La Placa Patente Única del vehículo, formateada como XXXX-NN (ej. RHPT-14)."},
	{"infraccion", "La descripción de la infracción denunciada."},
	{"lugar", "El lugar exacto donde ocurrió la infracción."},
	{"fecha", "La fecha de la infracción en formato DD-MM-YYYY."},
	{"hora", "La hora de la infracción en formato HH:MM."},
	{"procesoNumero", `El número de proceso encontrado en la denuncia, usualmente en un recuadro superior que dice "PROCESO N°".`},
	{"propietario", "El nombre completo del propietario del vehículo."},
	{"rut", "El RUT (Rol Único Tributario) del propietario."},
	{"marca", "La marca del vehículo."},
	{"modelo", "El modelo del vehículo."},
	{"color", "El color del vehículo."},
	{"ano", "El año de fabricación del vehículo."},
	{"tipoVehiculo", "El tipo de vehículo (ej. Automóvil, Jeep, Camioneta)."},
	{"numeroChasis", "El número de chasis (VIN) del vehículo."},
	{"numeroMotor", "El número de motor del vehículo."},
	{"domicilioCalle", "La calle de la dirección del propietario (sin el número)."},
	{"domicilioNumero", "El número de la dirección del propietario."},
	{"comuna", "La comuna del domicilio del propietario."},
}

var citationListSchema = func() Schema {
	props := make(map[string]any, len(citationFields))
	required := make([]string, 0, len(citationFields))
	for _, f := range citationFields {
		props[f.name] = map[string]any{"type": "STRING", "description": f.desc}
		required = append(required, f.name)
	}
	return Schema{
		"type": "ARRAY",
		"items": map[string]any{
			"type":       "OBJECT",
			"properties": props,
			"required":   required,
		},
	}
}()

// schemaPromptTmpl appends the response schema to a prompt for backends
// without native structured output.
var schemaPromptTmpl = template.Must(template.New("schema").Parse(`{{.Prompt}}

Responde únicamente con JSON que cumpla este schema:
{{.Schema}}
`))

// renderSchemaPrompt executes schemaPromptTmpl for req.
func renderSchemaPrompt(req Request) (string, error) {
	if req.Schema == nil {
		return req.Prompt, nil
	}
	schema, err := json.MarshalIndent(req.Schema, "", "  ")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = schemaPromptTmpl.Execute(&buf, struct{ Prompt, Schema string }{req.Prompt, string(schema)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
