package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docingest/internal/model"
	"docingest/internal/service"
)

// imageField is the multipart field carrying uploaded images.
const imageField = "image"

// uploadForm holds the parts shared by every upload endpoint.
type uploadForm struct {
	token    string
	memberID int64
	values   map[string][]string
	images   []model.ImageInput
}

func badForm(format string, args ...any) error {
	return &service.ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// parseUpload reads the multipart body. The access token comes from the
// accessToken field or, failing that, the Authorization header.
func parseUpload(c *fiber.Ctx) (*uploadForm, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, badForm("request must be multipart/form-data")
	}
	out := &uploadForm{values: form.Value}

	out.token, _ = formValue(form.Value, "accessToken")
	if out.token == "" {
		out.token = c.Get(fiber.HeaderAuthorization)
	}

	raw, _ := formValue(form.Value, "member_id")
	if raw == "" {
		return nil, badForm("missing member_id")
	}
	out.memberID, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || out.memberID <= 0 {
		return nil, badForm("member_id must be a positive integer")
	}

	for _, fh := range form.File[imageField] {
		img, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		out.images = append(out.images, img)
	}
	return out, nil
}

func readImage(fh *multipart.FileHeader) (model.ImageInput, error) {
	f, err := fh.Open()
	if err != nil {
		return model.ImageInput{}, badForm("cannot open uploaded file %q", fh.Filename)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return model.ImageInput{}, badForm("cannot read uploaded file %q", fh.Filename)
	}
	return model.ImageInput{
		Data:         data,
		MediaType:    fh.Header.Get(fiber.HeaderContentType),
		OriginalName: fh.Filename,
	}, nil
}

// formValue returns the first value of key and whether the key was sent.
func formValue(values map[string][]string, key string) (string, bool) {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// parseFields extracts the optional document fields of kind. An empty value
// counts as not sent, so it may be auto-filled; the literal "null" is an
// explicit null and is kept as such.
func parseFields(kind model.Kind, values map[string][]string) (model.DocumentFields, error) {
	f := model.DocumentFields{Values: make(map[model.Field]*string)}

	if v, ok := formValue(values, "title"); ok {
		f.Title = &v
	}
	if v, ok := formValue(values, "shared"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil || (v != "true" && v != "false") {
			return f, badForm("shared must be true or false")
		}
		f.Shared = &b
	}
	if kind == model.KindReport {
		if v, ok := formValue(values, "prescription_id"); ok && strings.TrimSpace(v) != "" {
			id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil || id <= 0 {
				return f, badForm("prescription_id must be a positive integer")
			}
			f.PrescriptionID = &id
		}
	}
	for _, field := range kind.Fields() {
		v, ok := formValue(values, string(field))
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch {
		case v == "":
		case strings.EqualFold(v, "null"):
			f.Values[field] = nil
		default:
			f.Values[field] = &v
		}
	}
	return f, nil
}
