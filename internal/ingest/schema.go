package ingest

// evaluationSchema accepts every shape the aggregation service has produced.
// Legacy score and rating keys stay valid here; Decode folds them into the
// canonical fields.
const evaluationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["component"],
    "properties": {
      "paperId":         {"type": "string"},
      "component":       {"type": "string", "minLength": 1},
      "field":           {"type": "string"},
      "evaluatorRole":   {"type": "string"},
      "automatedScore":  {"$ref": "#/definitions/score"},
      "accuracyScores":  {"$ref": "#/definitions/score"},
      "scores":          {"$ref": "#/definitions/score"},
      "similarityScore": {"$ref": "#/definitions/score"},
      "userRatings":     {"$ref": "#/definitions/ratings"},
      "ratings":         {"$ref": "#/definitions/ratings"}
    },
    "anyOf": [
      {"required": ["automatedScore"]},
      {"required": ["accuracyScores"]},
      {"required": ["scores"]},
      {"required": ["similarityScore"]}
    ]
  },
  "definitions": {
    "score": {
      "oneOf": [
        {"type": "number"},
        {
          "type": "object",
          "required": ["mean"],
          "properties": {"mean": {"type": "number"}}
        }
      ]
    },
    "ratings": {
      "oneOf": [
        {"type": "null"},
        {
          "type": "array",
          "items": {"type": "number", "minimum": 0, "maximum": 5}
        },
        {
          "type": "object",
          "properties": {
            "mean":  {"type": ["number", "null"], "minimum": 0, "maximum": 5},
            "count": {"type": "integer", "minimum": 0}
          }
        }
      ]
    }
  }
}`
