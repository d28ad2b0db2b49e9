package media

import "net/http"

// OpenerBuilderOption is a functional option for configuring an Opener.
type OpenerBuilderOption func(*openerImpl)

// WithHTTPClient sets the client used for http(s) images.
//
// Parameters:
//   - client: the HTTP client
//
// Returns:
//   - OpenerBuilderOption: option function to apply
func WithHTTPClient(client *http.Client) OpenerBuilderOption {
	return func(o *openerImpl) {
		if client != nil {
			o.client = client
		}
	}
}

// WithBaseDir resolves relative asset paths against dir.
//
// Parameters:
//   - dir: the directory holding the stage assets
//
// Returns:
//   - OpenerBuilderOption: option function to apply
func WithBaseDir(dir string) OpenerBuilderOption {
	return func(o *openerImpl) {
		o.baseDir = dir
	}
}

// WithVideoOpener sets the decoder used by OpenVideo.
//
// Parameters:
//   - open: the video opener
//
// Returns:
//   - OpenerBuilderOption: option function to apply
func WithVideoOpener(open VideoOpener) OpenerBuilderOption {
	return func(o *openerImpl) {
		o.videoOpener = open
	}
}
