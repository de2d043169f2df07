package ollama

import "strings"

const extractionSchema = `Return strict JSON object with keys:
invoiceNumber (string), vendorName (string), customerName (string),
invoiceDate (string, YYYY-MM-DD), dueDate (string, YYYY-MM-DD),
amount (number, total in cents), currency (string, ISO 4217 code),
lineItems (array of objects with description, quantity, unitPrice in cents, total in cents).
Omit a key if the document does not contain it. No markdown, no extra keys.`

// buildExtractionRequest shapes the generate call. Image uploads arrive as
// a data URL; the base64 payload goes into the images field untouched, never
// into the prompt, so the snippet cap only ever applies to document text.
func buildExtractionRequest(content string) (prompt string, images []string) {
	if payload, ok := dataURLPayload(content); ok {
		return buildImageExtractionPrompt(), []string{payload}
	}
	return buildExtractionPrompt(content), nil
}

func buildExtractionPrompt(content string) string {
	const maxSnippet = 16000
	snippet := content
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You are an invoice data extractor.
` + extractionSchema + `

Document:
` + snippet
}

func buildImageExtractionPrompt() string {
	return `You are an invoice data extractor.
The invoice document is attached as an image.
` + extractionSchema
}

func dataURLPayload(content string) (string, bool) {
	if !strings.HasPrefix(content, "data:image/") {
		return "", false
	}
	_, payload, ok := strings.Cut(content, ";base64,")
	if !ok || payload == "" {
		return "", false
	}
	return payload, true
}
