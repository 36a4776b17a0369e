package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/benefitsnav/screener-cli/internal/condition"
	"github.com/benefitsnav/screener-cli/internal/model"
	"github.com/benefitsnav/screener-cli/pkg/notion"
)

// LoadQuestionRegistry queries the Notion screening question database for
// all active questions and returns them sorted by display order.
func LoadQuestionRegistry(ctx context.Context, client notion.Client, dbID string) ([]model.ScreeningQuestion, error) {
	pages, err := notion.QueryActiveQuestions(ctx, client, dbID)
	if err != nil {
		return nil, eris.Wrap(err, "registry: load question registry")
	}

	var questions []model.ScreeningQuestion
	for _, p := range pages {
		q, err := parseQuestionPage(p)
		if err != nil {
			zap.L().Warn("registry: skipping malformed question page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		questions = append(questions, q)
	}

	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	return questions, nil
}

func parseQuestionPage(p notionapi.Page) (model.ScreeningQuestion, error) {
	q := model.ScreeningQuestion{
		ID: string(p.ID),
	}

	// Question (title)
	if prop, ok := p.Properties["Question"]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			q.Text = plainText(tp.Title)
		}
	}

	// AnswerKey (rich_text)
	if prop, ok := p.Properties["AnswerKey"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			q.AnswerKey = plainText(rtp.RichText)
		}
	}

	// InputType (select)
	if prop, ok := p.Properties["InputType"]; ok {
		if sp, ok := prop.(*notionapi.SelectProperty); ok {
			q.InputType = sp.Select.Name
		}
	}

	// DisplayCondition (rich_text)
	if prop, ok := p.Properties["DisplayCondition"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			q.DisplayCondition = plainText(rtp.RichText)
		}
	}

	// Order (number)
	if prop, ok := p.Properties["Order"]; ok {
		if np, ok := prop.(*notionapi.NumberProperty); ok {
			q.Order = int(np.Number)
		}
	}

	// Status (status)
	if prop, ok := p.Properties["Status"]; ok {
		if sp, ok := prop.(*notionapi.StatusProperty); ok {
			q.Status = sp.Status.Name
		}
	}

	if q.Text == "" {
		return q, eris.New("missing Question property")
	}
	if q.AnswerKey == "" {
		return q, eris.New("missing AnswerKey property")
	}

	return q, nil
}

// plainText concatenates the plain_text values from a slice of RichText.
func plainText(rts []notionapi.RichText) string {
	var s string
	for _, rt := range rts {
		s += rt.PlainText
	}
	return s
}

// CheckQuestionFlow validates the display conditions of an ordered question
// list. It reports conditions that do not parse, references to answer keys
// no question defines, and forward references, where a question's
// visibility depends on an answer collected later in the flow.
func CheckQuestionFlow(questions []model.ScreeningQuestion) []string {
	orderOf := make(map[string]int, len(questions))
	for _, q := range questions {
		orderOf[q.AnswerKey] = q.Order
	}

	var problems []string
	for _, q := range questions {
		if q.DisplayCondition == "" {
			continue
		}
		rule, err := condition.ParseRule(q.DisplayCondition)
		if err != nil {
			problems = append(problems, fmt.Sprintf("question %q: condition does not parse: %v", q.AnswerKey, err))
			continue
		}
		for _, ref := range rule.Refs() {
			refOrder, ok := orderOf[ref]
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("question %q: condition references unknown answer key %q", q.AnswerKey, ref))
			case refOrder >= q.Order:
				problems = append(problems, fmt.Sprintf("question %q: condition references %q, which is asked later", q.AnswerKey, ref))
			}
		}
	}
	return problems
}

// VisibleQuestions filters a question list down to those whose display
// conditions hold for the given answers. Questions with unparseable
// conditions are hidden and logged rather than shown with a broken gate.
func VisibleQuestions(questions []model.ScreeningQuestion, answers map[string]string) []model.ScreeningQuestion {
	var visible []model.ScreeningQuestion
	for _, q := range questions {
		if q.DisplayCondition == "" {
			visible = append(visible, q)
			continue
		}
		rule, err := condition.ParseRule(q.DisplayCondition)
		if err != nil {
			zap.L().Warn("registry: hiding question with unparseable condition",
				zap.String("answer_key", q.AnswerKey),
				zap.Error(err),
			)
			continue
		}
		if rule.Evaluate(answers) {
			visible = append(visible, q)
		}
	}
	return visible
}
