package llm

import "fmt"

// buildGeneratePrompt creates the draft-generation prompt. The model is
// asked for strict JSON so the result can be applied atomically or not at
// all.
func buildGeneratePrompt(req GenerateRequest) string {
	return fmt.Sprintf(`You are an expert in writing a %s. Based on the user's background and the target job/university details, generate a personalized draft %s.

User Background:
%s

Target Details:
%s

Return ONLY valid JSON in this exact format (no markdown, no commentary):
{
  "draft": "the full text of the draft %s"
}`, req.LetterType, req.LetterType, req.Background, req.TargetDetails, req.LetterType)
}

// buildImprovePrompt creates the content-improvement prompt.
func buildImprovePrompt(req ImproveRequest) string {
	return fmt.Sprintf(`You are an assistant specialized in refining cover letters and motivation letters.

Analyze the following letter and provide an improved version, focusing on grammar, style, and overall effectiveness. Also provide a list of the specific suggestions that were applied in the improved content. Consider the target job or university and the user's background to tailor the suggestions accordingly.

Letter Content:
%s

Target Job/University:
%s

User Background:
%s

Return ONLY valid JSON in this exact format (no markdown, no commentary):
{
  "improvedContent": "the full improved letter text",
  "suggestions": ["suggestion that was applied", "another suggestion"]
}`, req.LetterContent, req.TargetJobOrUniversity, req.UserBackground)
}
