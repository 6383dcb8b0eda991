package gemini

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pawzhq/pawz-api/internal/domain"
)

// buildCandidatePrompt renders the scoring prompt for a job context.
// The candidate payload itself is appended as a separate part by the caller.
func buildCandidatePrompt(job *domain.Job, weights *domain.Weights) string {
	mustList := "Not specified"
	if len(job.Criteria.MustHave) > 0 {
		mustList = strings.Join(job.Criteria.MustHave, ", ")
	}

	niceList := "None"
	if len(job.Criteria.NiceToHave) > 0 {
		niceList = strings.Join(job.Criteria.NiceToHave, ", ")
	}

	brief := job.RawBrief
	if brief == "" {
		brief = "No description"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `ROLE:
You are "Pawz", an impartial and factual Senior Recruiter.

JOB CONTEXT:
[TITLE]: %s
[BRIEF]: %s
[MUST-HAVE CRITERIA]: %s
[NICE-TO-HAVE CRITERIA]: %s

HUMAN SCORING RULES (CRITICAL):
1. CUMULATIVE EXPERIENCE: Do not look only at the latest position. Add up all relevant experience.
   (Ex: 2 years "Frontend Dev" + 3 years "Tech Lead" = 5 years of technical experience.)
2. DEGREE VS REALITY: Practical experience outweighs the degree, unless the degree is an explicit MUST (ex: physician, lawyer).
3. SOFT SKILLS: Infer them from the track record (ex: "Team Lead" = management, "Freelance" = autonomy).
`, job.Title, brief, mustList, niceList)

	if weights != nil && len(weights.Values) > 0 {
		b.WriteString("\nSCORING EMPHASIS (weight per dimension, higher = more important):\n")
		// Stable ordering keeps the prompt deterministic for identical weights.
		dims := make([]string, 0, len(weights.Values))
		for dim := range weights.Values {
			dims = append(dims, dim)
		}
		sort.Strings(dims)
		for _, dim := range dims {
			fmt.Fprintf(&b, "- %s: %.2f\n", dim, weights.Values[dim])
		}
	}

	b.WriteString(`
SCORING SCALE:
- 0-59 (Not relevant): Missing a critical MUST.
- 60-79 (Potential): Has the basics, but lacks seniority or the exact stack.
- 80-94 (Relevant): Solid fit. Checks every MUST.
- 95-100 (Jackpot): Perfect fit + NICE + outstanding track record.

OUTPUT FORMAT (JSON):
{
  "candidate_name": "First Last (or 'Unknown')",
  "candidate_title": "Detected current title",
  "score": 85,
  "verdict": "Short verdict (ex: Relevant profile)",
  "analysis": {
    "summary": "Summary paragraph (3 lines max). Start by explaining the score.",
    "strengths": ["Strength 1", "Strength 2"],
    "warnings": ["Watch-out 1", "Watch-out 2"]
  }
}`)

	return b.String()
}

// buildParsePrompt renders the prompt that structures a raw job description
// into must-have and nice-to-have criteria.
func buildParsePrompt(rawBrief string) string {
	return fmt.Sprintf(`ROLE:
You are a Technical Recruiting Expert. Your mission is to structure a raw job description.

INSTRUCTION:
Analyze the provided text. Extract the key criteria and split them strictly into two categories.
Ignore corporate fluff ("World leader in...", "Foosball table..."). Focus on the operational need.

EXTRACTION RULES:
1. "must_have": The BLOCKING skills. If the candidate lacks one, they are rejected.
2. "nice_to_have": The BONUS skills.
3. Criteria must be short (max 5 words).

OUTPUT FORMAT (JSON):
{
  "job_title": "Normalized job title",
  "summary": "One punchy sentence summarizing the role.",
  "criteria": {
    "must_have": ["Criterion 1", "Criterion 2"],
    "nice_to_have": ["Bonus 1", "Bonus 2"]
  }
}

JOB DESCRIPTION TO ANALYZE:
%s`, rawBrief)
}
