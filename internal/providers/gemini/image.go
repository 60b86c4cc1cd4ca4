package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/imagegen"
)

const fallbackImageMIME = "image/png"

// RequestImage asks the image model for one scene illustration. When a
// reference image is present it is sent first, followed by an instruction to
// keep the character consistent with it.
func (c *Client) RequestImage(ctx context.Context, req domain.ImageRequest) (domain.Image, error) {
	if err := req.Validate(); err != nil {
		return domain.Image{}, err
	}

	parts := make([]*genai.Part, 0, 2)
	if req.Reference != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Reference.Bytes(), req.Reference.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(imagegen.BuildInstruction(c.profile.ReferenceInstruction, req.Prompt, req.Reference != nil)))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: string(req.AspectRatio)},
	}

	resp, err := c.models.GenerateContent(ctx, c.imageModel, contents, config)
	if err != nil {
		classified := classifyError(ctx, err)
		c.logger.Warn().
			Err(err).
			Str("model", c.imageModel).
			Str("kind", domain.ErrorKind(classified)).
			Msg("gemini: image request failed")
		return domain.Image{}, classified
	}

	img, ok := firstInlineImage(resp)
	if !ok {
		c.logger.Warn().
			Str("model", c.imageModel).
			Msg("gemini: response carried no inline image")
		return domain.Image{}, fmt.Errorf("%w: model %s", domain.ErrImageNotFound, c.imageModel)
	}
	c.logger.Debug().
		Str("model", c.imageModel).
		Str("mime", img.MIMEType).
		Int("bytes", len(img.Data)).
		Bool("reference", req.Reference != nil).
		Msg("gemini: image generated")
	return img, nil
}

// firstInlineImage scans the first candidate for the first part carrying
// inline data.
func firstInlineImage(resp *genai.GenerateContentResponse) (domain.Image, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return domain.Image{}, false
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return domain.Image{}, false
	}
	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = fallbackImageMIME
		}
		return domain.Image{MIMEType: mimeType, Data: part.InlineData.Data}, true
	}
	return domain.Image{}, false
}
