package content

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names accepted by Validate.
const (
	SchemaCurriculum = "curriculum"
	SchemaDream      = "dream"
	SchemaFinancial  = "financial_wisdom"
	SchemaRhythmic   = "rhythmic_math"
	SchemaRaagas     = "raaga_recommendations"
	SchemaVedicNames = "vedic_names"
	SchemaDadJokes   = "dad_jokes"
)

var schemaSources = map[string]string{
	SchemaCurriculum: `{
  "type": "object",
  "required": ["sankalpa", "activities"],
  "properties": {
    "sankalpa": {
      "type": "object",
      "required": ["virtue", "description", "mantra"],
      "properties": {
        "virtue": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "mantra": {"type": "string"}
      }
    },
    "activities": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "category", "title", "description", "durationMinutes", "content"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "category": {"enum": ["MATH", "ART", "SPIRITUALITY", "BONDING"]},
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "durationMinutes": {"type": "integer", "minimum": 1},
          "content": {"type": "string"},
          "solution": {"type": ["string", "null"]}
        }
      }
    }
  }
}`,
	SchemaDream: `{
  "type": "object",
  "required": ["interpretation", "affirmation"],
  "properties": {
    "interpretation": {"type": "string", "minLength": 1},
    "affirmation": {"type": "string", "minLength": 1}
  }
}`,
	SchemaFinancial: `{
  "type": "object",
  "required": ["tips"],
  "properties": {
    "tips": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "title", "content", "icon"],
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string", "minLength": 1},
          "content": {"type": "string"},
          "icon": {"enum": ["PiggyBank", "TrendingUp", "DollarSign", "Wallet", "CreditCard"]}
        }
      }
    }
  }
}`,
	SchemaRhythmic: `{
  "type": "object",
  "required": ["activities"],
  "properties": {
    "activities": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "title", "duration", "bpm"],
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string", "minLength": 1},
          "duration": {"type": "string"},
          "bpm": {"type": "integer", "minimum": 20, "maximum": 240}
        }
      }
    }
  }
}`,
	SchemaRaagas: `{
  "type": "object",
  "required": ["raagas"],
  "properties": {
    "raagas": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "title", "time", "benefit", "duration"],
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string", "minLength": 1},
          "time": {"type": "string"},
          "benefit": {"type": "string"},
          "duration": {"type": "string"}
        }
      }
    }
  }
}`,
	SchemaVedicNames: `{
  "type": "object",
  "required": ["names"],
  "properties": {
    "names": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "meaning"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "meaning": {"type": "string"},
          "origin": {"type": "string"},
          "significance": {"type": "string"}
        }
      }
    }
  }
}`,
	SchemaDadJokes: `{
  "type": "object",
  "required": ["jokes"],
  "properties": {
    "jokes": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
  }
}`,
}

var (
	compiledSchemas map[string]*gojsonschema.Schema
	compileOnce     sync.Once
	compileErr      error
)

func getSchema(name string) (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchemas = make(map[string]*gojsonschema.Schema, len(schemaSources))
		for n, src := range schemaSources {
			s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
			if err != nil {
				compileErr = fmt.Errorf("compile %s schema: %w", n, err)
				return
			}
			compiledSchemas[n] = s
		}
	})
	if compileErr != nil {
		return nil, compileErr
	}
	s, ok := compiledSchemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

// SchemaError lists the schema violations of one model answer.
type SchemaError struct {
	Schema   string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: invalid model output: %s", e.Schema, strings.Join(e.Problems, "; "))
}

// Validate checks raw JSON against the named contract. A violation is returned
// as *SchemaError.
func Validate(name string, data []byte) error {
	schema, err := getSchema(name)
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%s: validating: %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &SchemaError{Schema: name, Problems: problems}
}
