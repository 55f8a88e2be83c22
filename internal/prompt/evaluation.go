package prompt

import "text/template"

// SingleWordInput is the data embedded in a single-word grading prompt.
type SingleWordInput struct {
	Question          string
	CorrectAnswer     string
	AcceptableAnswers []string
	UserAnswer        string
}

// ShortAnswerInput is the data embedded in a short-answer grading prompt.
type ShortAnswerInput struct {
	Question    string
	ModelAnswer string
	KeyPoints   []string
	UserAnswer  string
}

// PassingScore is the minimum short-answer score graded as correct.
const PassingScore = 70

var singleWordEvalTemplate = template.Must(template.New("singleWordEvaluation").Parse(`You are evaluating a student's single-word answer.

Question: "{{.Question}}"
Expected Answer: "{{.CorrectAnswer}}"
{{- if .AcceptableAnswers}}
Also Accepted: {{range $i, $a := .AcceptableAnswers}}{{if $i}}, {{end}}"{{$a}}"{{end}}
{{- end}}
Student's Answer: "{{.UserAnswer}}"

Evaluate if the student's answer is correct. Consider:
1. Exact match
2. Spelling variations (minor typos are acceptable)
3. Singular/plural forms
4. Case differences
5. Synonyms that are scientifically/contextually equivalent

Respond in this EXACT JSON format (no other text):
{
  "isCorrect": true/false,
  "score": 0-100,
  "feedback": "Brief explanation (1 sentence)"
}

Examples of correct evaluation:
- "mitochondria" vs "mitochondrion" → Correct (singular/plural)
- "DNA" vs "dna" → Correct (case difference)
- "nucleus" vs "nuclues" → Correct (minor typo)
- "cell wall" vs "cell membrane" → Incorrect (different structures)

Be fair but accurate.`))

var shortAnswerEvalTemplate = template.Must(template.New("shortAnswerEvaluation").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`You are a teacher grading a student's short answer.

Question: "{{.Question}}"

Model Answer (what a perfect answer would include):
"{{.ModelAnswer}}"

Key Points that should be covered:
{{range $i, $p := .KeyPoints}}{{inc $i}}. {{$p}}
{{end}}
Student's Answer:
"{{.UserAnswer}}"

Grade the student's answer on these criteria:
1. Accuracy: Are the facts correct?
2. Completeness: Are key concepts covered?
3. Understanding: Does the student demonstrate comprehension?
4. Clarity: Is the explanation clear?

Respond in this EXACT JSON format (no other text):
{
  "isCorrect": true/false,
  "score": 0-100,
  "feedback": "2-3 sentence explanation of the grade",
  "strengths": ["what they got right - array of strings"],
  "missing": ["what key points they missed - array of strings"],
  "errors": ["any factual errors - array of strings"]
}

Grading Guidelines:
- 90-100: Excellent, covers all key points accurately
- 80-89: Good, covers most points with minor gaps
- 70-79: Adequate, correct but missing some details (passing)
- 60-69: Partial understanding, significant gaps
- Below 60: Major errors or missing key concepts

Be fair but thorough. Partial credit is okay. Consider "isCorrect" as true if score >= {{.PassingScore}}.`))

// SingleWordEvaluation renders the grading prompt for a single-word answer.
func SingleWordEvaluation(in SingleWordInput) (string, error) {
	return render(singleWordEvalTemplate, in)
}

// ShortAnswerEvaluation renders the grading prompt for a short answer.
func ShortAnswerEvaluation(in ShortAnswerInput) (string, error) {
	return render(shortAnswerEvalTemplate, struct {
		ShortAnswerInput
		PassingScore int
	}{in, PassingScore})
}
