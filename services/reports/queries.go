package reports

import (
	"fmt"

	"github.com/customeros/dmarc-summaries/internal/enum"
)

// Each domain is a partition of the summaries container and each bucket a
// document in it, keyed by its label.
const categoryTotalsQuery = `SELECT
	c.category_totals.pass AS pass,
	c.category_totals.fail AS fail,
	c.category_totals.pass_dkim_only AS pass_dkim_only,
	c.category_totals.pass_spf_only AS pass_spf_only
FROM c
WHERE c.domain = @domain AND c.id = @date`

const detailTableQuery = `SELECT
	t.source_ip_address,
	t.envelope_from,
	t.header_from,
	t.dns_host,
	t.spf_domains,
	t.spf_results,
	t.spf_aligned,
	t.dkim_domains,
	t.dkim_selectors,
	t.dkim_results,
	t.dkim_aligned,
	t.disposition,
	t.total_messages,
	t.guidance
FROM c
JOIN t IN c.detail_tables.%s
WHERE c.domain = @domain AND c.id = @date`

func detailQuery(table enum.DetailTable) string {
	return fmt.Sprintf(detailTableQuery, table)
}
