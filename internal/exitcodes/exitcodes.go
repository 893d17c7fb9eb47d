package exitcodes

// Process exit codes
const (
	Success       = 0 // Run completed (individual path failures included)
	Usage         = 1 // Bad flags or prompt input unavailable
	InvalidConfig = 2 // Denylist unreadable or root not a directory
	RuntimeError  = 4 // Scan aborted or run artefacts could not be written
)
