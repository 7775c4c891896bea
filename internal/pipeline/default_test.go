package pipeline

import (
	"context"
	"reflect"
	"testing"

	"github.com/nao1215/logocluster/internal/decode"
	"github.com/nao1215/logocluster/internal/locate"
	"github.com/nao1215/logocluster/internal/model"
)

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	decoder := decode.New(decode.WithLogger(quietLogger()))

	t.Run("steps in order", func(t *testing.T) {
		t.Parallel()
		p := DefaultPipeline(&fakeLocator{}, &fakeImages{}, decoder, Settings{}, quietLogger())
		want := []string{"locate", "select", "hash"}
		if got := p.StepNames(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("hashes the first large enough candidate", func(t *testing.T) {
		t.Parallel()
		locator := &fakeLocator{results: map[string][]locate.Candidate{
			"https://site.com": {
				{Source: locate.SourceLinkIcon, URL: "https://site.com/small.png"},
				{Source: locate.SourceFavicon, URL: "https://site.com/big.png"},
			},
		}}
		images := &fakeImages{bodies: map[string][]byte{
			"https://site.com/small.png": pngBytes(t, 20, 20),
			"https://site.com/big.png":   pngBytes(t, 40, 40),
		}}
		p := DefaultPipeline(locator, images, decoder, Settings{MinLogoSize: 32}, quietLogger())

		task := NewTask("site.com")
		if err := p.Execute(context.Background(), task); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.Outcome.Status != model.StatusOK {
			t.Fatalf("expected OK, got %s", task.Outcome.Status)
		}
		if task.Outcome.LogoURL != "https://site.com/big.png" {
			t.Errorf("expected big.png, got %s", task.Outcome.LogoURL)
		}
		if !task.Outcome.Hash.Valid() {
			t.Error("expected valid hash")
		}
	})

	t.Run("skipped host", func(t *testing.T) {
		t.Parallel()
		locator := &fakeLocator{}
		settings := Settings{Skip: func(host string) bool { return host == "blocked.com" }}
		p := DefaultPipeline(locator, &fakeImages{}, decoder, settings, quietLogger())

		task := NewTask("blocked.com")
		if err := p.Execute(context.Background(), task); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.Outcome.Status != model.StatusNoLogo {
			t.Errorf("expected NO_LOGO, got %s", task.Outcome.Status)
		}
		if len(locator.calls) != 0 {
			t.Errorf("expected no lookups, got %v", locator.calls)
		}
	})
}
