package filter

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// charsetReader decodes non-UTF-8 MIME content via the IANA charset
// registry
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

var headerDecoder = mime.WordDecoder{CharsetReader: charsetReader}

// decodeEncodedHeader decodes RFC 2047 encoded-words in a header value
func decodeEncodedHeader(value string) (string, error) {
	return headerDecoder.DecodeHeader(value)
}

// ExtractText pulls the text content out of a message for
// analysis. Multipart messages prefer text/plain parts and fall back to
// text/html; transfer encoding and charset are undone along the way.
func ExtractText(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return readPart(msg.Body, textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Transfer-Encoding": {msg.Header.Get("Content-Transfer-Encoding")},
		})
	}

	boundary, ok := params["boundary"]
	if !ok {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	var plain, html strings.Builder
	mr := multipart.NewReader(msg.Body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}

		switch {
		case partType == "text/plain":
			if text, err := readPart(part, part.Header); err == nil {
				plain.WriteString(text)
				plain.WriteString("\n")
			}
		case partType == "text/html":
			if text, err := readPart(part, part.Header); err == nil {
				html.WriteString(text)
				html.WriteString("\n")
			}
		case strings.HasPrefix(partType, "multipart/"):
			nested := &mail.Message{Header: mail.Header(part.Header), Body: part}
			if text, err := ExtractText(nested); err == nil {
				plain.WriteString(text)
			}
		}
	}

	if strings.TrimSpace(plain.String()) != "" {
		return strings.TrimSpace(plain.String()), nil
	}
	return strings.TrimSpace(html.String()), nil
}

// readPart reads one body or part, undoing the transfer encoding and the
// declared charset
func readPart(r io.Reader, header textproto.MIMEHeader) (string, error) {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	if _, params, err := mime.ParseMediaType(header.Get("Content-Type")); err == nil {
		if charset, ok := params["charset"]; ok && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
			if decoded, err := charsetReader(charset, r); err == nil {
				r = decoded
			}
		}
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
