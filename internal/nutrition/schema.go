package nutrition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	reflector "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"menuscope/internal/services"
)

const schemaResource = "nutrition-response.json"

var (
	schemaOnce     sync.Once
	schemaDocument []byte
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func loadSchema() ([]byte, *jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		r := &reflector.Reflector{
			ExpandedStruct:            true,
			DoNotReference:            true,
			AllowAdditionalProperties: true,
		}
		s := r.Reflect(&PartialResult{})
		s.ID = ""
		s.Title = "Nutrition estimate"
		s.Description = "Nutritional content of one serving of a dish."

		doc, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			schemaErr = fmt.Errorf("marshal nutrition schema: %w", err)
			return
		}
		value, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
		if err != nil {
			schemaErr = fmt.Errorf("reload nutrition schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaResource, value); err != nil {
			schemaErr = fmt.Errorf("add nutrition schema resource: %w", err)
			return
		}
		compiled, err := compiler.Compile(schemaResource)
		if err != nil {
			schemaErr = fmt.Errorf("compile nutrition schema: %w", err)
			return
		}
		schemaDocument = doc
		schemaCompiled = compiled
	})
	return schemaDocument, schemaCompiled, schemaErr
}

// ResponseSchema returns the JSON Schema every estimator answer must satisfy.
func ResponseSchema() ([]byte, error) {
	doc, _, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return bytes.Clone(doc), nil
}

// Prompt builds the instruction sent to every model for one dish.
func Prompt(description string) (string, error) {
	doc, err := ResponseSchema()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Analyze the nutritional content of this dish: ")
	b.WriteString(strings.TrimSpace(description))
	b.WriteString("\n\nUse the attached photo to judge the portion size.\n")
	b.WriteString("Return ONLY a JSON object (no prose, no markdown) matching this JSON Schema:\n")
	b.Write(doc)
	b.WriteString("\n\nCalories are kcal for one serving; macronutrients are grams. ")
	b.WriteString("List vitamins and minerals by their common names.\n")
	return b.String(), nil
}

// ParseResponse validates a model's JSON answer against ResponseSchema and
// decodes it. Any violation is reported as an ErrSchema failure.
func ParseResponse(raw []byte) (PartialResult, error) {
	_, compiled, err := loadSchema()
	if err != nil {
		return PartialResult{}, services.Wrap(services.ErrConfiguration, "nutrition", "load schema", "", err)
	}
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return PartialResult{}, services.Wrap(services.ErrDecode, "nutrition", "parse response", "answer is not valid JSON", err)
	}
	if err := compiled.Validate(value); err != nil {
		return PartialResult{}, services.Wrap(services.ErrSchema, "nutrition", "validate response", describeViolation(err), nil)
	}
	var result PartialResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return PartialResult{}, services.Wrap(services.ErrDecode, "nutrition", "decode response", "", err)
	}
	return result, nil
}

func describeViolation(err error) string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return err.Error()
	}
	var leaves []string
	collectViolations(validationErr, &leaves)
	if len(leaves) == 0 {
		return validationErr.Error()
	}
	sort.Strings(leaves)
	return strings.Join(leaves, "; ")
}

var printer = message.NewPrinter(language.English)

func collectViolations(err *jsonschema.ValidationError, out *[]string) {
	if len(err.Causes) == 0 {
		location := "/" + strings.Join(err.InstanceLocation, "/")
		reason := "invalid value"
		if err.ErrorKind != nil {
			reason = err.ErrorKind.LocalizedString(printer)
		}
		*out = append(*out, location+": "+reason)
		return
	}
	for _, cause := range err.Causes {
		collectViolations(cause, out)
	}
}
