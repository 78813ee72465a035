package brandsite

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"golang.org/x/net/html"
)

// maxPageSize caps how much of a brand page is read when looking for
// metadata. Everything useful lives in <head>.
const maxPageSize = 1 << 20

type Metadata struct {
	Title       string
	Description string
	ImageURL    string
}

type IEndpoint interface {
	GetMetadata(ctx context.Context, pageURL string) (Metadata, error)
}

type Endpoint struct{}

func New() *Endpoint {
	return &Endpoint{}
}

func (e *Endpoint) GetMetadata(ctx context.Context, pageURL string) (Metadata, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return Metadata{}, err
	}

	resp, err := xcontext.HTTPClient(ctx).Do(req)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, errors.New("cannot fetch the brand page")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return Metadata{}, err
	}

	return parseMetadata(string(body)), nil
}

func parseMetadata(text string) Metadata {
	tokenizer := html.NewTokenizer(strings.NewReader(text))

	var meta Metadata
	inTitle := false
	for {
		tokenType := tokenizer.Next()
		stop := false
		switch tokenType {
		case html.ErrorToken:
			stop = true

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "title":
				inTitle = true

			case "meta":
				var property, content string
				for _, attr := range token.Attr {
					switch attr.Key {
					case "property", "name":
						property = attr.Val
					case "content":
						content = attr.Val
					}
				}

				switch property {
				case "og:title":
					meta.Title = content
				case "og:description", "description":
					if meta.Description == "" {
						meta.Description = content
					}
				case "og:image":
					meta.ImageURL = content
				}
			}

		case html.EndTagToken:
			if tokenizer.Token().Data == "title" {
				inTitle = false
			}

		case html.TextToken:
			if inTitle && meta.Title == "" {
				meta.Title = strings.TrimSpace(tokenizer.Token().Data)
			}
		}

		if stop {
			break
		}
	}

	return meta
}
