package api

import (
	"context"
	"encoding/json"

	"confmatch/pkg/models"
)

// ContactRequest is a support-form submission. Failures here are shown to
// the user, unlike background fetches.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// SubmitContact sends a contact-support form.
func (c *Client) SubmitContact(ctx context.Context, req ContactRequest) error {
	return c.do(ctx, "POST", "/contact", req, nil)
}

// QuestionnaireSave persists the user's questionnaire answers. The body
// shape is owned by the questionnaire package.
func (c *Client) QuestionnaireSave(ctx context.Context, body any) error {
	return c.do(ctx, "POST", "/questionnaire/save", body, nil)
}

// QuestionnaireMe fetches the saved questionnaire response, including the
// mutual-recommendation contact list used to seed provisional
// conversations. Answers are returned raw for the questionnaire package
// to decode into its typed answer union.
type QuestionnaireMeResponse struct {
	Answers               json.RawMessage `json:"answers"`
	MutualRecommendations []models.Party  `json:"mutual_recommendation"`
}

func (c *Client) QuestionnaireMe(ctx context.Context) (*QuestionnaireMeResponse, error) {
	var res struct {
		Data QuestionnaireMeResponse `json:"data"`
	}
	if err := c.do(ctx, "GET", "/questionnaire/me", nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}
