package registry

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/benefitsnav/screener-cli/internal/model"
)

func init() {
	// Replace global logger with no-op for tests (suppress warning output).
	zap.ReplaceGlobals(zap.NewNop())
}

// makeQuestionPage builds a fake notionapi.Page with screening question
// registry properties.
func makeQuestionPage(id, text, answerKey, inputType, displayCondition string, order int, status string) notionapi.Page {
	props := make(notionapi.Properties)

	props["Question"] = &notionapi.TitleProperty{
		Type: notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{
			{PlainText: text},
		},
	}

	props["AnswerKey"] = &notionapi.RichTextProperty{
		Type: notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{
			{PlainText: answerKey},
		},
	}

	props["InputType"] = &notionapi.SelectProperty{
		Type:   notionapi.PropertyTypeSelect,
		Select: notionapi.Option{Name: inputType},
	}

	if displayCondition != "" {
		props["DisplayCondition"] = &notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{PlainText: displayCondition},
			},
		}
	}

	props["Order"] = &notionapi.NumberProperty{
		Type:   notionapi.PropertyTypeNumber,
		Number: float64(order),
	}

	props["Status"] = &notionapi.StatusProperty{
		Type:   notionapi.PropertyTypeStatus,
		Status: notionapi.Status{Name: status},
	}

	return notionapi.Page{
		ID:         notionapi.ObjectID(id),
		Properties: props,
	}
}

func TestLoadQuestionRegistry_Success(t *testing.T) {
	mc := &mockNotionClient{}
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "q-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{
				makeQuestionPage("q2", "Are you pregnant?", "is_pregnant", "boolean", `sex == "female"`, 2, "Active"),
				makeQuestionPage("q1", "What is your sex?", "sex", "select", "", 1, "Active"),
			},
			HasMore: false,
		}, nil).Once()

	questions, err := LoadQuestionRegistry(ctx, mc, "q-db")
	require.NoError(t, err)
	require.Len(t, questions, 2)

	// Sorted by display order regardless of page order.
	assert.Equal(t, "q1", questions[0].ID)
	assert.Equal(t, "What is your sex?", questions[0].Text)
	assert.Equal(t, "sex", questions[0].AnswerKey)
	assert.Equal(t, "select", questions[0].InputType)
	assert.Empty(t, questions[0].DisplayCondition)

	assert.Equal(t, "q2", questions[1].ID)
	assert.Equal(t, `sex == "female"`, questions[1].DisplayCondition)
	assert.Equal(t, "Active", questions[1].Status)
	mc.AssertExpectations(t)
}

func TestLoadQuestionRegistry_MalformedPage(t *testing.T) {
	mc := &mockNotionClient{}
	ctx := context.Background()

	// One good page, one with no answer key (skipped with a warning).
	mc.On("QueryDatabase", ctx, "q-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{
				makeQuestionPage("q1", "Valid question", "k1", "text", "", 1, "Active"),
				makeQuestionPage("q2", "No key", "", "text", "", 2, "Active"),
			},
			HasMore: false,
		}, nil).Once()

	questions, err := LoadQuestionRegistry(ctx, mc, "q-db")
	require.NoError(t, err) // malformed pages are warnings, not errors
	require.Len(t, questions, 1)
	assert.Equal(t, "q1", questions[0].ID)
	mc.AssertExpectations(t)
}

func TestLoadQuestionRegistry_Pagination(t *testing.T) {
	mc := &mockNotionClient{}
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "q-db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == ""
	})).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{makeQuestionPage("q1", "Question 1", "k1", "text", "", 1, "Active")},
		HasMore:    true,
		NextCursor: "cursor-2",
	}, nil).Once()

	mc.On("QueryDatabase", ctx, "q-db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == "cursor-2"
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{makeQuestionPage("q2", "Question 2", "k2", "text", "", 2, "Active")},
		HasMore: false,
	}, nil).Once()

	questions, err := LoadQuestionRegistry(ctx, mc, "q-db")
	require.NoError(t, err)
	assert.Len(t, questions, 2)
	mc.AssertExpectations(t)
}

func TestLoadQuestionRegistry_QueryError(t *testing.T) {
	mc := &mockNotionClient{}
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "q-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(nil, assert.AnError).Once()

	questions, err := LoadQuestionRegistry(ctx, mc, "q-db")
	assert.Error(t, err)
	assert.Nil(t, questions)
	mc.AssertExpectations(t)
}

func flowQuestions() []model.ScreeningQuestion {
	return []model.ScreeningQuestion{
		{AnswerKey: "sex", Order: 1},
		{AnswerKey: "is_pregnant", Order: 2, DisplayCondition: `sex == "female"`},
		{AnswerKey: "due_date", Order: 3, DisplayCondition: `is_pregnant == true`},
	}
}

func TestCheckQuestionFlow(t *testing.T) {
	t.Parallel()

	t.Run("clean flow has no problems", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, CheckQuestionFlow(flowQuestions()))
	})

	t.Run("forward reference reported", func(t *testing.T) {
		t.Parallel()
		qs := flowQuestions()
		qs[1].DisplayCondition = `due_date != ""`
		problems := CheckQuestionFlow(qs)
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], "asked later")
	})

	t.Run("unknown key reported", func(t *testing.T) {
		t.Parallel()
		qs := flowQuestions()
		qs[2].DisplayCondition = `never_asked == true`
		problems := CheckQuestionFlow(qs)
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], "unknown answer key")
	})

	t.Run("parse failure reported", func(t *testing.T) {
		t.Parallel()
		qs := flowQuestions()
		qs[1].DisplayCondition = `sex == `
		problems := CheckQuestionFlow(qs)
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], "does not parse")
	})
}

func TestVisibleQuestions(t *testing.T) {
	t.Parallel()

	qs := flowQuestions()

	t.Run("no answers shows only unconditional questions", func(t *testing.T) {
		t.Parallel()
		visible := VisibleQuestions(qs, nil)
		require.Len(t, visible, 1)
		assert.Equal(t, "sex", visible[0].AnswerKey)
	})

	t.Run("answers open downstream questions", func(t *testing.T) {
		t.Parallel()
		visible := VisibleQuestions(qs, map[string]string{"sex": "female", "is_pregnant": "true"})
		require.Len(t, visible, 3)
	})

	t.Run("unparseable condition hides the question", func(t *testing.T) {
		t.Parallel()
		bad := flowQuestions()
		bad[1].DisplayCondition = `sex == `
		visible := VisibleQuestions(bad, map[string]string{"sex": "female"})
		require.Len(t, visible, 1)
	})
}
