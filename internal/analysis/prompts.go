package analysis

import (
	"strings"

	"github.com/calliq/insights-backend/internal/calltype"
)

const (
	// CallTypeAuto asks the pipeline to pick a built-in template by
	// sniffing the transcript body.
	CallTypeAuto = "auto"

	callTypeSales   = "sales"
	callTypeService = "customer-service"
)

const promptPreamble = `You are a quality analyst reviewing a call-center transcript.
Respond with a single JSON object and nothing else. The object must contain:
"callSummary" (object of string fields), "agentPerformance" with "strengths"
and "areasForImprovement" (arrays of short phrases), "improvementSuggestions"
(array of strings), and "scorecard" with numeric ratings from 0 to 10 for
"customerService", "productKnowledge", "processEfficiency", "problemSolving"
and "overallScore".`

const salesTemplate = promptPreamble + `

This was a sales call. In callSummary include "customerInterest",
"objections", "outcome" and "nextSteps". Rate the agent on discovery
questions, handling of objections and closing technique.`

const serviceTemplate = promptPreamble + `

This was a customer service call. In callSummary include "reasonForCall",
"resolution" and "followUpRequired". Rate the agent on empathy, clarity of
explanation and whether the customer's problem was actually resolved.`

// salesSignals are matched against the lowercased transcript when the call
// type is "auto".
var salesSignals = []string{
	"price", "pricing", "discount", "purchase", "buy", "order",
	"quote", "upgrade", "subscription", "deal", "contract",
}

// resolvePrompt picks the system prompt for a transcript. An active custom
// call type wins; otherwise "auto" sniffs the body and anything else falls
// back to the matching built-in, defaulting to the service template.
func resolvePrompt(ct *calltype.CallType, code, rawTranscript string) (systemPrompt, resolvedType string) {
	if ct != nil {
		prompt := ct.PromptTemplate
		if extra := ct.JSONStructure.Instructions; extra != "" {
			prompt += "\n\n" + extra
		}
		return prompt, ct.Code
	}

	switch code {
	case callTypeSales:
		return salesTemplate, callTypeSales
	case CallTypeAuto, "":
		if sniffSales(rawTranscript) {
			return salesTemplate, callTypeSales
		}
		return serviceTemplate, callTypeService
	default:
		return serviceTemplate, code
	}
}

func sniffSales(rawTranscript string) bool {
	body := strings.ToLower(rawTranscript)
	hits := 0
	for _, signal := range salesSignals {
		if strings.Contains(body, signal) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}
