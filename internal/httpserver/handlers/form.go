package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
)

const maxFormBody = 64 << 10

type createdResponse struct {
	InputID int    `json:"input_id"`
	Message string `json:"message"`
}

// readFormValues decodes a flat JSON object into raw form values. Values
// keep the form's string semantics: numbers and booleans are rendered back
// to text and null is an empty field.
func readFormValues(r *http.Request) (map[string]string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBody+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxFormBody {
		return nil, errors.New("request body too large")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
			values[k] = ""
		case string:
			values[k] = t
		case json.Number:
			values[k] = t.String()
		case bool:
			values[k] = strconv.FormatBool(t)
		default:
			return nil, fmt.Errorf("%s: %w", k, console.ErrInvalidField)
		}
	}
	return values, nil
}

// CreateInput runs the create flow of the input form with the posted values.
func CreateInput(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := readFormValues(r)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		id, err := d.Console.SubmitInput(r.Context(), console.ModeCreate, 0, values)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, createdResponse{InputID: id, Message: "Input added successfully"})
	}
}

// UpdateInput runs the edit flow: the draft is pre-populated from the
// existing input and the posted values are applied over it.
func UpdateInput(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		values, err := readFormValues(r)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := d.Console.SubmitInput(r.Context(), console.ModeEdit, id, values); err != nil {
			writeError(w, d, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Input updated successfully")
	}
}

// DeleteInput deletes an input; ?confirm=true is the confirmation step.
func DeleteInput(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		if err := d.Console.DeleteInput(r.Context(), id, console.Confirmed(confirm)); err != nil {
			writeError(w, d, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Input deleted")
	}
}

// Form shows the shared form state, including the error of a failed submit.
func Form(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Console.Form())
	}
}

// CancelForm discards the draft.
func CancelForm(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Console.CancelForm()
		writeJSON(w, http.StatusOK, d.Console.Form())
	}
}
