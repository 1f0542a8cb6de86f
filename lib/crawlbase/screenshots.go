package crawlbase

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

const SaveToPathOption = "save_to_path"

var screenshotPathPattern = regexp.MustCompile(`.+\.(jpg|JPG|jpeg|JPEG)$`)

type ScreenshotResponse struct {
	Response
	// Path is where the capture was written. Response.Body holds the same
	// bytes base64 encoded.
	Path string
}

// ScreenshotsAPI captures a page to a jpeg file and reports the headers
// describing it.
type ScreenshotsAPI struct {
	client *Client
}

// Get saves the screenshot of url to the "save_to_path" option, or to a
// random file in the temp directory when unset. The path must end in .jpg
// or .jpeg, it is checked before anything is sent.
func (a *ScreenshotsAPI) Get(ctx context.Context, url string, opts *Options) (*ScreenshotResponse, error) {
	opts = opts.Clone()
	path := ""
	if v, ok := opts.Get(SaveToPathOption); ok {
		path = fmt.Sprint(v)
		opts.Delete(SaveToPathOption)
	} else {
		path = generateScreenshotPath()
	}
	if err := ValidateScreenshotPath(path); err != nil {
		return nil, err
	}

	ex, err := a.client.execute(ctx, screenshotsProfile, call{
		method:      http.MethodGet,
		targetName:  "url",
		targetValue: url,
		options:     opts,
		savePath:    path,
	})
	if err != nil {
		return nil, err
	}
	return &ScreenshotResponse{
		Response: *newResponse(ex),
		Path:     path,
	}, nil
}

// Post always fails, screenshots are read only.
func (a *ScreenshotsAPI) Post(ctx context.Context, url string, data, opts *Options) (*ScreenshotResponse, error) {
	return nil, fmt.Errorf("%w: only GET is allowed for the screenshots api", ErrUnsupportedOperation)
}

func ValidateScreenshotPath(path string) error {
	if !screenshotPathPattern.MatchString(path) {
		return fmt.Errorf("%w: filename must end with .jpg or .jpeg: %q", ErrInvalidArgument, path)
	}
	return nil
}

func generateScreenshotPath() string {
	return filepath.Join(os.TempDir(), uuid.NewString()+".jpg")
}
