package cushion

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RawInput is what the caller sent, before any validation.
type RawInput struct {
	OriginalMessage  string
	RecipientStyle   string
	SituationContext string
	ImageBase64      string
	ImageMIMEType    string
}

type Image struct {
	Data     []byte
	MIMEType string
}

// Request is the canonical transformation request. Image is nil when no
// image was attached.
type Request struct {
	OriginalMessage  string
	RecipientStyle   string
	SituationContext string
	Image            *Image
}

func (r Request) HasMessage() bool {
	return strings.TrimSpace(r.OriginalMessage) != ""
}

type imageFields struct {
	Data     string `validate:"required_with=MIMEType"`
	MIMEType string `validate:"required_with=Data"`
}

// Normalize validates caller input and shapes it into a Request. Recipient
// style and situation context are passed through even when they are not one
// of the known values.
func Normalize(in RawInput) (Request, error) {
	fields := imageFields{
		Data:     strings.TrimSpace(in.ImageBase64),
		MIMEType: strings.TrimSpace(in.ImageMIMEType),
	}
	if err := validate.Struct(fields); err != nil {
		return Request{}, ValidationError(ReasonMalformedImage, err)
	}

	req := Request{
		OriginalMessage:  in.OriginalMessage,
		RecipientStyle:   strings.TrimSpace(in.RecipientStyle),
		SituationContext: strings.TrimSpace(in.SituationContext),
	}

	if fields.Data != "" {
		data, err := decodeImage(fields.Data)
		if err != nil {
			return Request{}, ValidationError(ReasonMalformedImage, err)
		}
		req.Image = &Image{Data: data, MIMEType: fields.MIMEType}
	}

	if !req.HasMessage() && req.Image == nil {
		return Request{}, ValidationError(ReasonEmptyInput, nil)
	}
	if !req.HasMessage() {
		req.OriginalMessage = ""
	}
	return req, nil
}

func decodeImage(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("image data is empty")
	}
	return data, nil
}
