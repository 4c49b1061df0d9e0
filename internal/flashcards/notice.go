package flashcards

// NoticeKind distinguishes success toasts from error toasts.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message shown to the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// IsZero reports whether no notice is set.
func (n Notice) IsZero() bool {
	return n.Message == ""
}

// User-facing messages.
const (
	MsgNotesRequired    = "Please enter some notes first!"
	MsgNoCards          = "Could not generate flashcards. Please try different text."
	MsgGenerated        = "Flashcards generated successfully!"
	MsgUnknownError     = "An unknown error occurred."
	MsgNothingToExport  = "No flashcards to export!"
	MsgExportedJSON     = "Exported as JSON successfully!"
	MsgExportedPDF      = "Exported as PDF successfully!"
	MsgExportInvalid    = "Export canceled or invalid format."
	MsgCleared          = "All flashcards cleared."
	MsgLoaded           = "Flashcards loaded from history."
	msgFallbackTemplate = "Error: %s. Showing demo cards."

	msgUnsupportedLanguageTemplate = "Unsupported language: %s"
)

func successNotice(message string) Notice {
	return Notice{Kind: NoticeSuccess, Message: message}
}

func errorNotice(message string) Notice {
	return Notice{Kind: NoticeError, Message: message}
}
