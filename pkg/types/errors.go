// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Pipeline errors. Callers compare with errors.Is and convert to one
// user-visible message at the point of the triggering action.
var (
	ErrProviderEmptyResponse     = errors.New("provider returned no content")
	ErrProviderMalformedResponse = errors.New("provider returned malformed content")
	ErrProviderPolicyBlocked     = errors.New("provider blocked the content by policy")
	ErrTemplateSheetNotFound     = errors.New("template sheet not found")
	ErrTemplateFileUnreadable    = errors.New("template file unreadable")
	ErrBatchCaptureFailure       = errors.New("batch capture failed")

	ErrNoEntries        = errors.New("no complaints found in the documents")
	ErrNothingExtracted = errors.New("extraction returned no records")
	ErrMissingAPIKey    = errors.New("AI API key is not configured")
	ErrBatchInProgress  = errors.New("a batch render is already running")
	ErrNoCitations      = errors.New("no citations to render")
	ErrMissingDocuments = errors.New("both source documents are required")
)

// Messages shown to the clerk.
const (
	MsgMissingDocuments = "Por favor, sube los archivos de Denuncias y CIAV."
	MsgNoEntries        = "No se encontraron denuncias en los documentos. Revisa los archivos e intenta nuevamente."
	MsgNothingExtracted = "La IA no pudo extraer datos. Revisa los archivos e intenta nuevamente."
	MsgPolicyBlocked    = "El contenido del documento fue bloqueado por políticas de seguridad. Pruebe con otro archivo."
	MsgExtractionFailed = "No se pudieron extraer los datos. Asegúrese de que los documentos sean claros y legibles."
	MsgTemplateUnread   = "No se pudo leer el archivo Excel. Asegúrate de que no esté corrupto."
	MsgSheetNotFound    = "La hoja de cálculo no se encontró en el archivo."
	MsgBatchPDF         = "Ocurrió un error al generar el PDF masivo."
	MsgBatchPrint       = "Ocurrió un error al preparar la impresión masiva."
	MsgBatchInProgress  = "Ya hay una generación masiva en curso."
	MsgNoCitations      = "No hay citaciones para exportar."
	MsgMissingAPIKey    = "La clave de la API de IA no está configurada."
	MsgUnknown          = "Ocurrió un error desconocido."
)

var userMessages = []struct {
	err error
	msg string
}{
	{ErrMissingDocuments, MsgMissingDocuments},
	{ErrNoEntries, MsgNoEntries},
	{ErrNothingExtracted, MsgNothingExtracted},
	{ErrProviderPolicyBlocked, MsgPolicyBlocked},
	{ErrProviderEmptyResponse, MsgExtractionFailed},
	{ErrProviderMalformedResponse, MsgExtractionFailed},
	{ErrTemplateFileUnreadable, MsgTemplateUnread},
	{ErrTemplateSheetNotFound, MsgSheetNotFound},
	{ErrBatchInProgress, MsgBatchInProgress},
	{ErrNoCitations, MsgNoCitations},
	{ErrMissingAPIKey, MsgMissingAPIKey},
}

// UserMessage maps err to the message shown to the clerk. Errors outside the
// taxonomy yield MsgUnknown.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return MsgUnknown
}
