package reports

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/customeros/dmarc-summaries/internal/enum"
	"github.com/customeros/dmarc-summaries/internal/models"
)

var rowNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("dmarc-summaries/detail-row"))

type categoryTotalsRow struct {
	Pass         int `json:"pass"`
	Fail         int `json:"fail"`
	PassDkimOnly int `json:"pass_dkim_only"`
	PassSpfOnly  int `json:"pass_spf_only"`
}

func (r categoryTotalsRow) toModel() models.CategoryTotals {
	return models.CategoryTotals{
		Pass:         r.Pass,
		Fail:         r.Fail,
		PassDkimOnly: r.PassDkimOnly,
		PassSpfOnly:  r.PassSpfOnly,
	}
}

type detailRow struct {
	SourceIPAddress string `json:"source_ip_address"`
	EnvelopeFrom    string `json:"envelope_from"`
	HeaderFrom      string `json:"header_from"`
	DNSHost         string `json:"dns_host"`
	SPFDomains      string `json:"spf_domains"`
	SPFResults      string `json:"spf_results"`
	SPFAligned      *bool  `json:"spf_aligned"`
	DKIMDomains     string `json:"dkim_domains"`
	DKIMSelectors   string `json:"dkim_selectors"`
	DKIMResults     string `json:"dkim_results"`
	DKIMAligned     *bool  `json:"dkim_aligned"`
	Disposition     string `json:"disposition"`
	TotalMessages   int    `json:"total_messages"`
	Guidance        string `json:"guidance"`
}

// toModel maps the row and gives it an id derived from what identifies the
// source, so it keeps its id while its message count grows.
func (r detailRow) toModel(domain, startDate string, table enum.DetailTable) models.DetailRow {
	key := strings.Join([]string{
		domain,
		startDate,
		table.String(),
		r.SourceIPAddress,
		r.EnvelopeFrom,
		r.HeaderFrom,
		r.DNSHost,
		r.SPFDomains,
		r.SPFResults,
		formatAligned(r.SPFAligned),
		r.DKIMDomains,
		r.DKIMSelectors,
		r.DKIMResults,
		formatAligned(r.DKIMAligned),
		r.Disposition,
	}, "|")

	return models.DetailRow{
		ID:              uuid.NewSHA1(rowNamespace, []byte(key)).String(),
		SourceIPAddress: r.SourceIPAddress,
		EnvelopeFrom:    r.EnvelopeFrom,
		HeaderFrom:      r.HeaderFrom,
		DNSHost:         r.DNSHost,
		SPFDomains:      r.SPFDomains,
		SPFResults:      r.SPFResults,
		SPFAligned:      r.SPFAligned,
		DKIMDomains:     r.DKIMDomains,
		DKIMSelectors:   r.DKIMSelectors,
		DKIMResults:     r.DKIMResults,
		DKIMAligned:     r.DKIMAligned,
		Disposition:     r.Disposition,
		TotalMessages:   r.TotalMessages,
		Guidance:        r.Guidance,
	}
}

func formatAligned(aligned *bool) string {
	if aligned == nil {
		return ""
	}
	return strconv.FormatBool(*aligned)
}
