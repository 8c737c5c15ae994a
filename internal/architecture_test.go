package internal

import (
	"testing"

	"github.com/kcmvp/archunit"
)

func TestArchitecture(t *testing.T) {
	domain := archunit.Packages("domain", []string{".../internal/domain"})
	core := archunit.Packages("core", []string{
		".../internal/capability",
		".../internal/registry",
		".../internal/language",
		".../internal/intent",
		".../internal/executor",
		".../internal/response",
	})
	application := archunit.Packages("application", []string{".../internal/application"})
	infra := archunit.Packages("infra", []string{".../internal/infra/..."})

	rules := []struct {
		name  string
		check error
	}{
		{"domain -> core", domain.ShouldNotReferLayers(core)},
		{"domain -> application", domain.ShouldNotReferLayers(application)},
		{"domain -> infra", domain.ShouldNotReferLayers(infra)},
		{"core -> application", core.ShouldNotReferLayers(application)},
		{"core -> infra", core.ShouldNotReferLayers(infra)},
		{"application -> infra", application.ShouldNotReferLayers(infra)},
	}

	for _, rule := range rules {
		if rule.check != nil {
			t.Errorf("Architecture violation (%s): %v", rule.name, rule.check)
		}
	}
}

func TestAdaptersPresent(t *testing.T) {
	adapters := archunit.Packages("adapters", []string{".../internal/infra/..."})
	if len(adapters.Packages()) == 0 {
		t.Error("No adapter packages found under infra")
	}
}
