package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

type addThing struct{ Name string }

type listThings struct{}

func TestSendRoutesByRequestType(t *testing.T) {
	d := New(nil)
	Register(d, func(_ context.Context, req addThing) (string, error) {
		return "added " + req.Name, nil
	})
	Register(d, func(_ context.Context, _ listThings) ([]string, error) {
		return []string{"a", "b"}, nil
	})

	got, err := Send[addThing, string](context.Background(), d, addThing{Name: "x"})
	if err != nil {
		t.Fatalf("Send(addThing): %v", err)
	}
	if got != "added x" {
		t.Errorf("result = %q", got)
	}

	list, err := Send[listThings, []string](context.Background(), d, listThings{})
	if err != nil {
		t.Fatalf("Send(listThings): %v", err)
	}
	if len(list) != 2 {
		t.Errorf("list = %v", list)
	}
}

func TestSendPropagatesHandlerError(t *testing.T) {
	d := New(nil)
	want := domain.NotFound("thing %q does not exist", "x")
	Register(d, func(_ context.Context, _ addThing) (string, error) {
		return "", want
	})

	_, err := Send[addThing, string](context.Background(), d, addThing{})
	if !errors.Is(err, want) && !domain.HasCode(err, domain.CodeNotFound) {
		t.Errorf("err = %v want the handler's NotFound", err)
	}
}

func TestSendNormalizesPanics(t *testing.T) {
	d := New(nil)
	Register(d, func(_ context.Context, _ addThing) (*string, error) {
		panic("boom")
	})

	res, err := Send[addThing, *string](context.Background(), d, addThing{})
	if err == nil {
		t.Fatal("expected error from panicking handler")
	}
	if domain.CodeOf(err) != domain.CodeInternal {
		t.Errorf("code = %s want %s", domain.CodeOf(err), domain.CodeInternal)
	}
	if res != nil {
		t.Errorf("result = %v want nil", res)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	d := New(nil)
	Register(d, func(_ context.Context, _ addThing) (string, error) { return "", nil })

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register(d, func(_ context.Context, _ addThing) (string, error) { return "", nil })
}

func TestUnregisteredRequestPanics(t *testing.T) {
	d := New(nil)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for unregistered request type")
		}
	}()
	_, _ = Send[listThings, []string](context.Background(), d, listThings{})
}
