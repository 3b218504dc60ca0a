package audio

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned for sources that are neither MP3 nor WAV.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

type codec int

const (
	codecUnknown codec = iota
	codecMP3
	codecWAV
)

// source is an opened and decoded locator. Closing the stream closes the
// underlying file or response body.
type source struct {
	stream beep.StreamSeekCloser
	format beep.Format
}

func isRemote(locator string) bool {
	u, err := url.Parse(locator)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// open fetches and decodes locator, which is a file path, a file:// URL or
// an http(s) URL.
func open(ctx context.Context, client *http.Client, locator string) (*source, error) {
	u, err := url.Parse(locator)
	if isRemote(locator) {
		return openHTTP(ctx, client, locator, u)
	}

	p := locator
	if err == nil && u.Scheme == "file" {
		p = u.Path
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", p)
	}
	src, err := decode(f, codecFromExt(p))
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

func openHTTP(ctx context.Context, client *http.Client, locator string, u *url.URL) (*source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", u.Redacted())
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf("fetch %s: unexpected status %d", u.Redacted(), resp.StatusCode)
	}

	c := codecFromContentType(resp.Header.Get("Content-Type"))
	if c == codecUnknown {
		c = codecFromExt(u.Path)
	}
	src, err := decode(resp.Body, c)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	return src, nil
}

// decode picks the decoder for c. Unknown sources are tried as MP3, the
// format of every remote provider we serve except YouTube.
func decode(rc io.ReadCloser, c codec) (*source, error) {
	switch c {
	case codecWAV:
		stream, format, err := wav.Decode(rc)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to decode wav"), ErrUnsupportedFormat)
		}
		return &source{stream: stream, format: format}, nil
	default:
		stream, format, err := mp3.Decode(rc)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to decode mp3"), ErrUnsupportedFormat)
		}
		return &source{stream: stream, format: format}, nil
	}
}

func codecFromExt(p string) codec {
	switch strings.ToLower(path.Ext(p)) {
	case ".mp3":
		return codecMP3
	case ".wav", ".wave":
		return codecWAV
	default:
		return codecUnknown
	}
}

func codecFromContentType(ct string) codec {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return codecUnknown
	}
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return codecMP3
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return codecWAV
	default:
		return codecUnknown
	}
}

// IsSupportedFile reports whether p has an extension the transport decodes.
func IsSupportedFile(p string) bool {
	return codecFromExt(p) != codecUnknown
}

// FileDuration returns the length of a local audio file, or zero when the
// decoder cannot tell.
func FileDuration(p string) (time.Duration, error) {
	s, err := open(context.Background(), http.DefaultClient, p)
	if err != nil {
		return 0, err
	}
	defer s.stream.Close()

	n := s.stream.Len()
	if n <= 0 {
		return 0, nil
	}
	return s.format.SampleRate.D(n), nil
}
