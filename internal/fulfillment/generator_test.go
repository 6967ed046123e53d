package fulfillment_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/xtreino/platform/internal/config"
	"github.com/xtreino/platform/internal/fulfillment"
	productdomain "github.com/xtreino/platform/internal/product/domain"
	"gorm.io/datatypes"
)

func newGenerator() *fulfillment.Generator {
	return fulfillment.NewGenerator(config.Config{
		SiteBaseURL:    "https://xtreino.com.br",
		WhatsAppNumber: "5511999999999",
	})
}

func TestMapFileNameKnownMaps(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Bermuda", "BERMUDA.zip"},
		{"Bermuda Remix", "BERMUDA.zip"},
		{"KALAHARI", "KALAHARI.zip"},
		{"alpine", "ALPINE.zip"},
		{"Purgatório", "PURGATORIO.zip"},
		{"Nexterra", "NEXTERRA.zip"},
		{"Solara", "SOLARA.zip"},
	}

	for _, tc := range cases {
		if got := fulfillment.MapFileName(tc.name); got != tc.want {
			t.Errorf("MapFileName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestMapFileNameUnknownMapFallsBackToSlug(t *testing.T) {
	if got := fulfillment.MapFileName("Nova Arena"); got != "imagens-nova-arena.zip" {
		t.Fatalf("MapFileName fallback = %q, want imagens-nova-arena.zip", got)
	}
}

func TestGenerateDownloadProductWithSelectedMaps(t *testing.T) {
	g := newGenerator()

	product := &productdomain.Product{
		ID:   102,
		Name: "Imagens de Call",
		Type: productdomain.TypeDownload,
	}
	items := g.Generate(product, product.ID, map[string]any{
		"maps": []any{"Bermuda", "Kalahari"},
	})

	if len(items) != 2 {
		t.Fatalf("expected 2 deliverables, got %d", len(items))
	}
	if items[0].URL != "https://xtreino.com.br/downloads/BERMUDA.zip" {
		t.Fatalf("unexpected url: %s", items[0].URL)
	}
	if items[1].Name != "Kalahari" {
		t.Fatalf("unexpected name: %s", items[1].Name)
	}
}

func TestGenerateDownloadProductWithMetadataFile(t *testing.T) {
	g := newGenerator()

	product := &productdomain.Product{
		ID:   201,
		Name: "Pacote de Sensibilidade",
		Type: productdomain.TypeDownload,
		Metadata: datatypes.JSONMap{
			"file":        "SENSIBILIDADE.zip",
			"description": "Configurações de sensibilidade",
		},
	}
	items := g.Generate(product, product.ID, nil)

	if len(items) != 1 {
		t.Fatalf("expected 1 deliverable, got %d", len(items))
	}
	if items[0].URL != "https://xtreino.com.br/downloads/SENSIBILIDADE.zip" {
		t.Fatalf("unexpected url: %s", items[0].URL)
	}
	if items[0].Description != "Configurações de sensibilidade" {
		t.Fatalf("unexpected description: %s", items[0].Description)
	}
}

func TestGenerateDeliveryProductLinksToWhatsApp(t *testing.T) {
	g := newGenerator()

	product := &productdomain.Product{
		ID:   103,
		Name: "Gelo Treinado",
		Type: productdomain.TypeDelivery,
	}
	items := g.Generate(product, product.ID, nil)

	if len(items) != 1 {
		t.Fatalf("expected 1 deliverable, got %d", len(items))
	}
	if !strings.HasPrefix(items[0].URL, "https://wa.me/5511999999999?text=") {
		t.Fatalf("expected WhatsApp link, got %s", items[0].URL)
	}
	if strings.Contains(items[0].URL, " ") {
		t.Fatalf("message not escaped: %s", items[0].URL)
	}
}

func TestGenerateLegacyProductIDsWithoutCatalogEntry(t *testing.T) {
	g := newGenerator()

	items := g.Generate(nil, 101, nil)
	if len(items) != 1 || items[0].URL != "https://xtreino.com.br/downloads/SENSIBILIDADE.zip" {
		t.Fatalf("unexpected legacy download: %+v", items)
	}

	items = g.Generate(nil, 102, map[string]any{"maps": "Bermuda, Solara"})
	if len(items) != 2 {
		t.Fatalf("expected 2 map deliverables, got %d", len(items))
	}
	if items[1].URL != "https://xtreino.com.br/downloads/SOLARA.zip" {
		t.Fatalf("unexpected url: %s", items[1].URL)
	}

	items = g.Generate(nil, 103, nil)
	if len(items) != 1 || !strings.HasPrefix(items[0].URL, "https://wa.me/") {
		t.Fatalf("expected WhatsApp deliverable, got %+v", items)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := newGenerator()

	product := &productdomain.Product{
		ID:   102,
		Name: "Imagens de Call",
		Type: productdomain.TypeDownload,
	}
	options := map[string]any{
		"maps": []any{"Bermuda", "Nova Arena", "Kalahari"},
	}

	first := g.Generate(product, product.ID, options)
	second := g.Generate(product, product.ID, options)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different deliverables:\n%+v\n%+v", first, second)
	}

	// Legacy id resolution is equally stable without a catalog row.
	first = g.Generate(nil, 103, nil)
	second = g.Generate(nil, 103, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same legacy input produced different deliverables:\n%+v\n%+v", first, second)
	}
}

func TestGenerateUnknownProductFallsBackToGenericArchive(t *testing.T) {
	g := newGenerator()

	items := g.Generate(nil, 999, nil)
	if len(items) != 1 {
		t.Fatalf("expected 1 deliverable, got %d", len(items))
	}
	if items[0].URL != "https://xtreino.com.br/downloads/produto-999.zip" {
		t.Fatalf("unexpected fallback url: %s", items[0].URL)
	}
}
