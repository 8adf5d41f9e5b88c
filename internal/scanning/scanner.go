package scanning

// Scanner defines the interface for OCR text extraction
type Scanner interface {
	// ExtractText reads all visible text off a receipt image or PDF and
	// returns it as newline-delimited plain text
	ExtractText(imageData []byte, contentType string) (string, error)
	// Close closes the engine and releases resources
	Close() error
}

// transcribePrompt is the shared prompt used by all vision providers. The
// heuristic parser downstream wants raw lines, not pre-digested fields, so
// the model is asked for a verbatim transcription.
const transcribePrompt = `You are reading a photographed retail receipt. Transcribe every line of printed text you can see, exactly as printed, one receipt line per output line.

Rules:
- Keep item names and their prices on the same output line.
- Preserve the top-to-bottom order of the receipt.
- Include header lines (store name, address), date lines, and the subtotal/tax/total lines.
- Do not translate, summarize, annotate, or correct anything.
- Return ONLY the transcribed text with no commentary and no markdown code blocks.
- If no text is readable, return an empty response.`
