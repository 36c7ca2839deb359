package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/kamilpajak/medguide/internal/diagnosis"
	"github.com/kamilpajak/medguide/internal/llm"
)

// maxRequestBytes fits llm.MaxImages base64-encoded images plus the text fields.
const maxRequestBytes = llm.MaxImages*llm.MaxImageBytes*4/3 + 1<<20

type imagePayload struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type diagnoseRequest struct {
	Symptoms           []string       `json:"symptoms"`
	ExistingConditions string         `json:"existing_conditions"`
	Images             []imagePayload `json:"images"`
}

type diagnoseResponse struct {
	RequestID  string               `json:"request_id"`
	Result     *diagnosis.Result    `json:"result"`
	Assessment diagnosis.Assessment `json:"assessment"`
	Steps      []string             `json:"steps,omitempty"`
}

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func (h *Handler) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	if h.diagnoser == nil {
		writeError(w, http.StatusServiceUnavailable, "diagnosis is not available")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var (
		input diagnoseRequest
		err   error
		files []llm.Image
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		input, files, err = readMultipart(r)
	case "application/json", "":
		input, files, err = readJSONRequest(r)
	default:
		writeError(w, http.StatusUnsupportedMediaType, "use application/json or multipart/form-data")
		return
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		var bad badRequest
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.As(err, &bad):
			writeError(w, http.StatusBadRequest, bad.msg)
		default:
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return
	}

	req, err := diagnosis.NewRequest(input.Symptoms, files, input.ExistingConditions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.diagnoser.Diagnose(r.Context(), req)
	assessment := diagnosis.Evaluate(result)

	resp := diagnoseResponse{
		RequestID:  RequestID(r.Context()),
		Result:     result,
		Assessment: assessment,
	}
	if !assessment.Insufficient {
		resp.Steps = assessment.Steps(diagnosis.DefaultSteps)
	}
	writeJSON(w, http.StatusOK, resp)
}

func readJSONRequest(r *http.Request) (diagnoseRequest, []llm.Image, error) {
	var input diagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return input, nil, err
	}
	if len(input.Images) > llm.MaxImages {
		return input, nil, badRequest{fmt.Sprintf("at most %d images are allowed", llm.MaxImages)}
	}

	images := make([]llm.Image, 0, len(input.Images))
	for i, p := range input.Images {
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return input, nil, badRequest{fmt.Sprintf("image %d is not valid base64", i+1)}
		}
		img, err := checkImage(p.Name, p.MIMEType, data)
		if err != nil {
			return input, nil, err
		}
		images = append(images, img)
	}
	return input, images, nil
}

func readMultipart(r *http.Request) (diagnoseRequest, []llm.Image, error) {
	var input diagnoseRequest
	if err := r.ParseMultipartForm(llm.MaxImageBytes); err != nil {
		return input, nil, err
	}
	// The form is parsed on a request copy, so the server's own cleanup
	// never sees the spilled parts.
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	input.Symptoms = r.MultipartForm.Value["symptoms"]
	input.ExistingConditions = r.FormValue("existing_conditions")

	headers := r.MultipartForm.File["images"]
	if len(headers) > llm.MaxImages {
		return input, nil, badRequest{fmt.Sprintf("at most %d images are allowed", llm.MaxImages)}
	}

	images := make([]llm.Image, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > llm.MaxImageBytes {
			return input, nil, badRequest{fmt.Sprintf("%s is larger than 10MB", fh.Filename)}
		}
		f, err := fh.Open()
		if err != nil {
			return input, nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return input, nil, err
		}
		img, err := checkImage(fh.Filename, fh.Header.Get("Content-Type"), data)
		if err != nil {
			return input, nil, err
		}
		images = append(images, img)
	}
	return input, images, nil
}

// checkImage applies the upload rules: at most llm.MaxImageBytes, and a declared
// type, if any, must be an image type.
func checkImage(name, mimeType string, data []byte) (llm.Image, error) {
	label := name
	if label == "" {
		label = "image"
	}
	if len(data) > llm.MaxImageBytes {
		return llm.Image{}, badRequest{fmt.Sprintf("%s is larger than 10MB", label)}
	}
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if mt != "" && mt != "application/octet-stream" && !strings.HasPrefix(mt, "image/") {
		return llm.Image{}, badRequest{fmt.Sprintf("%s is not an image", label)}
	}
	return llm.Image{Data: data, MIMEType: mimeType, Name: name}, nil
}
