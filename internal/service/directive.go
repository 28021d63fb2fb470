package service

import (
	"fmt"
	"strings"

	"github.com/digkill/PhotoStudio/internal/models"
)

// Directive is the styling instruction derived from the user's options.
type Directive struct {
	Background    string
	PreserveDress bool
	Clothing      string
	Size          string
	Brightness    int
	Fairness      int
	Retouch       bool
	LightFix      bool
}

// BuildDirective maps generation options to a Directive. It never fails: unknown
// backgrounds fall back to the default studio colour.
func BuildDirective(opts models.GenerationOptions) Directive {
	clothing := strings.TrimSpace(opts.Clothing)
	return Directive{
		Background:    models.BackgroundTag(opts.Background),
		PreserveDress: strings.EqualFold(clothing, models.ClothingNoChange),
		Clothing:      clothing,
		Size:          opts.Size.String(),
		Brightness:    opts.Brightness,
		Fairness:      opts.Fairness,
		Retouch:       opts.FaceSmooth,
		LightFix:      opts.LightFix,
	}
}

func (d Directive) ClothingClause() string {
	if d.PreserveDress {
		return "PRESERVE CLOTHING: Keep the original outfit exactly as it appears in the source image. Do not change color or style."
	}
	return fmt.Sprintf("REPLACE CLOTHING: Replace current outfit with a high-end, tailored, and realistic %q. The clothing must fit perfectly on the straightened posture.", d.Clothing)
}

func (d Directive) SkinClause() string {
	clause := fmt.Sprintf("SKIN & LIGHTING: Increase fairness by %d%% and overall image brightness to %d%%.", d.Fairness, d.Brightness)
	if d.Retouch {
		clause += " Apply professional high-end skin retouching, removing blemishes while keeping natural details."
	}
	if d.LightFix {
		clause += " Correct uneven exposure, harsh shadows and color casts on the face."
	}
	return clause
}

// Prompt renders the full instruction sent to the image model.
func (d Directive) Prompt() string {
	var b strings.Builder
	b.WriteString("Task: Professional AI Studio Portrait Generation with Mandatory Auto-Straightening.\n\n")
	b.WriteString("CRITICAL POSTURE RULES (MANDATORY):\n")
	b.WriteString("1. AUTO-ALIGNMENT & STRAIGHTENING: Analyze the subject's head, neck, and shoulders. If the person is tilted, leaning, or crooked, rotate and align them to a perfect vertical professional studio posture.\n")
	b.WriteString("2. EYE LEVELING: Ensure the eyes are perfectly horizontal and level.\n")
	b.WriteString("3. COMPOSITION: Center the subject in the frame. The head must be upright and the body straight as in a formal passport photograph.\n\n")
	b.WriteString("STRICT VISUAL RULES:\n")
	b.WriteString("4. NO TEXT OR GRAPHICS: Do not include any text, letters, watermarks, symbols, or labels.\n")
	b.WriteString("5. FACE IDENTITY: The face must remain identical to the source person. Do not alter facial structure.\n")
	fmt.Fprintf(&b, "6. BACKGROUND: Replace the entire background with a single, solid, clean %q color. No textures or gradients.\n", d.Background)
	fmt.Fprintf(&b, "7. %s\n", d.ClothingClause())
	fmt.Fprintf(&b, "8. %s\n", d.SkinClause())
	b.WriteString("9. STUDIO QUALITY: Apply professional 3-point studio lighting. Ensure high resolution and sharp details.\n")
	fmt.Fprintf(&b, "10. FRAMING: Compose for a %s print.\n", d.Size)
	b.WriteString("11. OUTPUT: Return ONLY the final processed image. No borders, no text, no multi-panels.\n")
	return b.String()
}
