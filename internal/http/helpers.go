package http

// attachment builds a Content-Disposition value for a download.
func attachment(filename string) string {
	return `attachment; filename="` + filename + `"`
}
