package fulfillment

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gosimple/slug"
	"github.com/xtreino/platform/internal/config"
	"github.com/xtreino/platform/internal/fulfillment/domain"
	productdomain "github.com/xtreino/platform/internal/product/domain"
)

// Generator produces the deliverables granted by a digital purchase. It is
// a pure function of the product and the purchase options, so the caller
// may safely invoke it again on a retried notification.
type Generator struct {
	siteBaseURL    string
	whatsappNumber string
}

func NewGenerator(cfg config.Config) *Generator {
	return &Generator{
		siteBaseURL:    strings.TrimRight(cfg.SiteBaseURL, "/"),
		whatsappNumber: cfg.WhatsAppNumber,
	}
}

// Generate resolves deliverables in order: the catalog entry when present,
// the legacy product-id rule table otherwise, and a conventionally-named
// archive as the last resort.
func (g *Generator) Generate(product *productdomain.Product, productID int64, options map[string]any) []domain.Deliverable {
	if product != nil {
		if items := g.fromCatalog(product, options); len(items) > 0 {
			return items
		}
	}
	if rule, ok := legacyRules[productID]; ok {
		if items := g.fromLegacyRule(rule, options); len(items) > 0 {
			return items
		}
	}
	return []domain.Deliverable{{
		Name:        "Arquivos do pedido",
		URL:         g.downloadURL(fmt.Sprintf("produto-%d.zip", productID)),
		Description: "Arquivos do produto adquirido",
	}}
}

func (g *Generator) fromCatalog(product *productdomain.Product, options map[string]any) []domain.Deliverable {
	switch product.Type {
	case productdomain.TypeDownload:
		if maps := selectedMaps(options); len(maps) > 0 {
			return g.mapDeliverables(maps)
		}
		if file := metadataString(product.Metadata, "file"); file != "" {
			return []domain.Deliverable{{
				Name:        product.Name,
				URL:         g.downloadURL(file),
				Description: metadataString(product.Metadata, "description"),
			}}
		}
		return nil
	case productdomain.TypeDelivery, productdomain.TypeGift:
		message := metadataString(product.Metadata, "message")
		if message == "" {
			message = fmt.Sprintf("Olá! Comprei %s no site e quero combinar a entrega.", product.Name)
		}
		return []domain.Deliverable{{
			Name:        "Combinar entrega",
			URL:         g.whatsAppLink(message),
			Description: "Fale com a equipe pelo WhatsApp para receber " + product.Name,
		}}
	default:
		return nil
	}
}

type legacyRule struct {
	name    string
	file    string
	maps    bool
	message string
}

// Product ids sold before the catalog existed keep their fulfillment rules
// here so old pending orders still resolve after payment.
var legacyRules = map[int64]legacyRule{
	101: {name: "Pacote de Sensibilidade", file: "SENSIBILIDADE.zip"},
	102: {name: "Imagens de Call", maps: true},
	103: {name: "Gelo Treinado", message: "Olá! Comprei o Gelo Treinado e quero combinar a entrega."},
}

func (g *Generator) fromLegacyRule(rule legacyRule, options map[string]any) []domain.Deliverable {
	if rule.maps {
		return g.mapDeliverables(selectedMaps(options))
	}
	if rule.file != "" {
		return []domain.Deliverable{{
			Name: rule.name,
			URL:  g.downloadURL(rule.file),
		}}
	}
	if rule.message != "" {
		return []domain.Deliverable{{
			Name:        "Combinar entrega",
			URL:         g.whatsAppLink(rule.message),
			Description: "Fale com a equipe pelo WhatsApp para receber " + rule.name,
		}}
	}
	return nil
}

func (g *Generator) mapDeliverables(maps []string) []domain.Deliverable {
	items := make([]domain.Deliverable, 0, len(maps))
	for _, name := range maps {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		items = append(items, domain.Deliverable{
			Name:        name,
			URL:         g.downloadURL(MapFileName(name)),
			Description: "Imagens de call do mapa " + name,
		})
	}
	return items
}

func (g *Generator) downloadURL(file string) string {
	return g.siteBaseURL + "/downloads/" + file
}

func (g *Generator) whatsAppLink(message string) string {
	return "https://wa.me/" + g.whatsappNumber + "?text=" + url.QueryEscape(message)
}

// Known map archives, matched by fragment after normalization. Names the
// storefront renders ("Bermuda Remix", "KALAHARI") all collapse onto the
// same archive per map.
var mapFiles = []struct {
	fragment string
	file     string
}{
	{"bermuda", "BERMUDA.zip"},
	{"kalahari", "KALAHARI.zip"},
	{"alpine", "ALPINE.zip"},
	{"purgat", "PURGATORIO.zip"},
	{"nexterra", "NEXTERRA.zip"},
	{"solara", "SOLARA.zip"},
}

// MapFileName normalizes a map display name (lower-case, whitespace to
// hyphens) and resolves it against the known archives, falling back to a
// slug-derived filename for maps added after this table was written.
func MapFileName(name string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	for _, mf := range mapFiles {
		if strings.Contains(normalized, mf.fragment) {
			return mf.file
		}
	}
	return "imagens-" + slug.Make(name) + ".zip"
}

func selectedMaps(options map[string]any) []string {
	if options == nil {
		return nil
	}
	raw, ok := options["maps"]
	if !ok {
		return nil
	}

	switch typed := raw.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil
		}
		parts := strings.Split(typed, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	if value, ok := metadata[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
