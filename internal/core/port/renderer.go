package port

type ReportRenderer interface {
	// Render produces a downloadable document from a report title and body.
	Render(title, body string) ([]byte, error)
}
