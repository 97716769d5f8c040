package schema

// Type names follow the OpenAPI subset accepted by Gemini response schemas.
type Type string

const (
	TypeObject  Type = "OBJECT"
	TypeArray   Type = "ARRAY"
	TypeString  Type = "STRING"
	TypeNumber  Type = "NUMBER"
	TypeInteger Type = "INTEGER"
)

// Node is one level of the structural schema sent to the inference service.
type Node struct {
	Type        Type             `json:"type"`
	Description string           `json:"description,omitempty"`
	Properties  map[string]*Node `json:"properties,omitempty"`
	Items       *Node            `json:"items,omitempty"`
	Enum        []string         `json:"enum,omitempty"`
	Required    []string         `json:"required,omitempty"`
}

// Descriptor returns the response shape requested from the inference
// service. It mirrors the checks in Validate; a fresh tree is built on
// every call so callers may modify it freely.
//
// Log entry metadata is left out: Gemini rejects OBJECT nodes without
// properties, and the field is optional anyway.
func Descriptor() *Node {
	return &Node{
		Type: TypeObject,
		Properties: map[string]*Node{
			"summary": {
				Type:        TypeString,
				Description: "Executive summary of the audit",
			},
			"parsedLogs":          arrayOf(logEntryNode()),
			"anomalies":           arrayOf(anomalyNode()),
			"securityThreats":     arrayOf(threatNode()),
			"performanceInsights": arrayOf(insightNode()),
			"recommendations":     arrayOf(&Node{Type: TypeString}),
		},
		Required: append([]string(nil), requiredFields...),
	}
}

func logEntryNode() *Node {
	return &Node{
		Type: TypeObject,
		Properties: map[string]*Node{
			"timestamp": {Type: TypeString},
			"severity":  {Type: TypeString, Enum: []string{"INFO", "WARNING", "ERROR", "CRITICAL"}},
			"source":    {Type: TypeString},
			"message":   {Type: TypeString},
		},
		Required: []string{"timestamp", "severity", "message"},
	}
}

func anomalyNode() *Node {
	return &Node{
		Type: TypeObject,
		Properties: map[string]*Node{
			"type":        {Type: TypeString},
			"description": {Type: TypeString},
			"confidence":  {Type: TypeNumber, Description: "Between 0.0 and 1.0"},
			"relatedEntries": {
				Type:        TypeArray,
				Description: "Zero-based indices into parsedLogs",
				Items:       &Node{Type: TypeInteger},
			},
		},
		Required: []string{"type", "description", "confidence"},
	}
}

func threatNode() *Node {
	return &Node{
		Type: TypeObject,
		Properties: map[string]*Node{
			"category":   {Type: TypeString},
			"riskScore":  {Type: TypeNumber, Description: "Between 0 and 10"},
			"details":    {Type: TypeString},
			"mitigation": {Type: TypeString},
		},
		Required: []string{"category", "riskScore", "details", "mitigation"},
	}
}

func insightNode() *Node {
	return &Node{
		Type: TypeObject,
		Properties: map[string]*Node{
			"metric":     {Type: TypeString},
			"value":      {Type: TypeString},
			"assessment": {Type: TypeString, Enum: []string{"GOOD", "FAIR", "POOR"}},
		},
		Required: []string{"metric", "value", "assessment"},
	}
}

func arrayOf(item *Node) *Node {
	return &Node{Type: TypeArray, Items: item}
}
