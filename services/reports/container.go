package reports

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/internal/tracing"
)

// Container runs parameterized queries scoped to one partition and returns
// the raw JSON items.
type Container interface {
	QueryItems(ctx context.Context, query, partitionKey string, params []azcosmos.QueryParameter) ([][]byte, error)
}

type cosmosContainer struct {
	client *azcosmos.ContainerClient
}

func NewCosmosContainer(cfg *config.CosmosConfig) (Container, error) {
	client, err := azcosmos.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "cosmos client")
	}
	container, err := client.NewContainer(cfg.Database, cfg.SummariesContainer)
	if err != nil {
		return nil, errors.Wrapf(err, "cosmos container %s/%s", cfg.Database, cfg.SummariesContainer)
	}
	return &cosmosContainer{client: container}, nil
}

func (c *cosmosContainer) QueryItems(ctx context.Context, query, partitionKey string, params []azcosmos.QueryParameter) ([][]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CosmosContainer.QueryItems")
	defer span.Finish()
	tracing.TagComponentCosmosRepository(span)
	span.LogKV("query", query, "partitionKey", partitionKey)

	pager := c.client.NewQueryItemsPager(query, azcosmos.NewPartitionKeyString(partitionKey), &azcosmos.QueryOptions{
		QueryParameters: params,
	})

	var items [][]byte
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(err, "cosmos query")
		}
		items = append(items, page.Items...)
	}
	span.LogKV("result.items", len(items))
	return items, nil
}
