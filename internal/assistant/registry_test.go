package assistant

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/shared/errs"
)

func TestDispatch(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{Name: "echo", Description: "echoes its input"},
		func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var in struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, errs.Invalid("bad args")
			}
			return in.Text, nil
		})

	result, err := r.Dispatch(context.Background(), "echo", json.RawMessage(`{"text":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Dispatch(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestDispatchEmptyArgsBecomeObject(t *testing.T) {
	r := NewRegistry()
	var received string
	r.Register(Tool{Name: "capture"},
		func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			received = string(args)
			return nil, nil
		})

	_, err := r.Dispatch(context.Background(), "capture", nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", received)
}

func TestDispatchInvalidJSON(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{Name: "noop"},
		func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			return nil, nil
		})

	_, err := r.Dispatch(context.Background(), "noop", json.RawMessage(`{not json`))
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalid, errs.KindOf(err))
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		r.Register(Tool{Name: name}, func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			return nil, nil
		})
	}

	var names []string
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

// The full registry wires one tool per public operation; handlers are
// not invoked here, only listed.
func TestToolRegistryNames(t *testing.T) {
	r := NewToolRegistry(nil, nil, nil)

	names := map[string]bool{}
	for _, tool := range r.List() {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description, "tool %s needs a description", tool.Name)
	}

	for _, want := range []string{
		"search_books", "search_books_with_loans", "add_book",
		"search_borrowers", "search_borrower_fines", "register_borrower",
		"search_loans", "checkout_book", "checkin_book",
		"search_fines", "fine_summary", "get_user_fines", "get_fines",
		"get_fines_grouped", "pay_loan_fine", "pay_borrower_fines",
		"update_fines",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}
