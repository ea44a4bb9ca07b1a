package gstplay

// Host is the application embedding the player.
//
// Every method except VideoWindowHandle is called on the run loop.
// VideoWindowHandle is called from the video sink's streaming thread and must
// be safe for concurrent use.
type Host interface {
	// HaveGUI reports whether a window exists to render video into.
	HaveGUI() bool
	// QuitOnStreamEnd reports whether end-of-stream terminates the run loop.
	QuitOnStreamEnd() bool
	// SoftwareColorBalance reports whether stored color defaults are applied
	// once playback starts.
	SoftwareColorBalance() bool
	// ColorBalanceDefault returns the stored default for the channel in [0,100].
	ColorBalanceDefault(ch Channel) float64
	// CurrentURI returns the media being played and its display title.
	CurrentURI() (uri, title string)
	// CreatePipeline builds a pipeline description for the media.
	CreatePipeline(uri, title string) string
	// UsesPlaybin reports whether descriptions are built around playbin,
	// which is the only pipeline exposing a volume property.
	UsesPlaybin() bool
	// VideoWindowHandle returns the native window handle video is bound to.
	VideoWindowHandle() uintptr
	// ShowError surfaces an error to the user.
	ShowError(title, detail string)
}
