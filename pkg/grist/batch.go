package grist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gridworks-io/grist/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedBatchAction = errors.New("unsupported batch action")
	ErrInvalidBatchData       = errors.New("invalid data type for batch operation")
	ErrBatchFailed            = errors.New("batch failed")
)

// BatchAction names what a batch operation does to its table.
type BatchAction string

// Batch actions. Each maps onto one RecordsClient call.
const (
	BatchAdd    BatchAction = "add"
	BatchUpdate BatchAction = "update"
	BatchUpsert BatchAction = "upsert"
	BatchDelete BatchAction = "delete"
)

// BatchOperation represents a single row operation in a batch. An
// empty Doc addresses the configured document. Data must match the
// action: []map[string]interface{} for add, []Record for update,
// []UpsertRecord for upsert, []int for delete.
type BatchOperation struct {
	ID       string
	Action   BatchAction
	Doc      string
	Table    string
	Data     interface{}
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation. For adds,
// Data holds the ids of the created rows.
type BatchResult struct {
	ID       string
	Success  bool
	Data     interface{}
	Error    error
	Duration time.Duration
}

// BatchExecutor executes batch operations against the records client,
// several tables at a time.
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = 5
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the timeout for batch operations.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Operations on the same table are
// not ordered relative to each other; sequence dependent writes belong
// in separate batches.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) ([]BatchResult, error) {
	results := make([]BatchResult, len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, operation := range operations {
		waitGroup.Add(1)

		go func(index int, operation BatchOperation) {
			defer waitGroup.Done()

			// Acquire semaphore
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			// Execute operation with timeout
			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			// Call callback if provided
			if operation.Callback != nil {
				operation.Callback(result)
			}
		}(index, operation)
	}

	waitGroup.Wait()

	return results, nil
}

// executeOperation executes a single operation.
func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{
		ID: operation.ID,
	}

	switch operation.Action {
	case BatchAdd:
		fieldsets, ok := operation.Data.([]map[string]interface{})
		if !ok {
			result.Error = fmt.Errorf("%w: add wants []map[string]interface{}", ErrInvalidBatchData)

			return result
		}

		ids, err := b.client.Records().Add(ctx, operation.Doc, operation.Table, fieldsets, nil)
		result.Success = err == nil
		result.Data = ids
		result.Error = err
	case BatchUpdate:
		records, ok := operation.Data.([]Record)
		if !ok {
			result.Error = fmt.Errorf("%w: update wants []Record", ErrInvalidBatchData)

			return result
		}

		err := b.client.Records().Update(ctx, operation.Doc, operation.Table, records, nil)
		result.Success = err == nil
		result.Error = err
	case BatchUpsert:
		records, ok := operation.Data.([]UpsertRecord)
		if !ok {
			result.Error = fmt.Errorf("%w: upsert wants []UpsertRecord", ErrInvalidBatchData)

			return result
		}

		err := b.client.Records().AddOrUpdate(ctx, operation.Doc, operation.Table, records, nil)
		result.Success = err == nil
		result.Error = err
	case BatchDelete:
		recordIDs, ok := operation.Data.([]int)
		if !ok {
			result.Error = fmt.Errorf("%w: delete wants []int", ErrInvalidBatchData)

			return result
		}

		err := b.client.Records().Delete(ctx, operation.Doc, operation.Table, recordIDs)
		result.Success = err == nil
		result.Error = err
	default:
		result.Error = fmt.Errorf("%w: %s", ErrUnsupportedBatchAction, operation.Action)
	}

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

// AddRecords adds a row insertion operation.
func (b *BatchBuilder) AddRecords(id, doc, table string, fieldsets []map[string]interface{}) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:     id,
		Action: BatchAdd,
		Doc:    doc,
		Table:  table,
		Data:   fieldsets,
	})

	return b
}

// UpdateRecords adds a row update operation.
func (b *BatchBuilder) UpdateRecords(id, doc, table string, records []Record) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:     id,
		Action: BatchUpdate,
		Doc:    doc,
		Table:  table,
		Data:   records,
	})

	return b
}

// UpsertRecords adds an add-or-update operation.
func (b *BatchBuilder) UpsertRecords(id, doc, table string, records []UpsertRecord) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:     id,
		Action: BatchUpsert,
		Doc:    doc,
		Table:  table,
		Data:   records,
	})

	return b
}

// DeleteRecords adds a row deletion operation.
func (b *BatchBuilder) DeleteRecords(id, doc, table string, recordIDs []int) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:     id,
		Action: BatchDelete,
		Doc:    doc,
		Table:  table,
		Data:   recordIDs,
	})

	return b
}

// AddOperation adds a custom operation.
func (b *BatchBuilder) AddOperation(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the built operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}

// BatchTransaction represents a batch that cleans up after itself: if
// any operation fails, the rows created by the successful adds are
// deleted again.
type BatchTransaction struct {
	operations []BatchOperation
	results    []BatchResult
	executor   *BatchExecutor
	rollback   bool
}

// NewBatchTransaction creates a new batch transaction.
func NewBatchTransaction(executor *BatchExecutor) *BatchTransaction {
	return &BatchTransaction{
		executor:   executor,
		operations: make([]BatchOperation, 0),
		rollback:   true,
	}
}

// Add adds an operation to the transaction.
func (t *BatchTransaction) Add(operation BatchOperation) *BatchTransaction {
	t.operations = append(t.operations, operation)

	return t
}

// SetRollback sets whether to rollback on failure.
func (t *BatchTransaction) SetRollback(rollback bool) *BatchTransaction {
	t.rollback = rollback

	return t
}

// Execute executes the transaction.
func (t *BatchTransaction) Execute(ctx context.Context) ([]BatchResult, error) {
	results, err := t.executor.Execute(ctx, t.operations)
	t.results = results

	// Check for failures
	var failedOps []string

	for _, result := range results {
		if !result.Success {
			failedOps = append(failedOps, result.ID)
		}
	}

	// If there were failures and rollback is enabled
	if len(failedOps) > 0 && t.rollback {
		t.performRollback(ctx)

		return results, fmt.Errorf("%w, %d operations failed: %v", ErrBatchFailed, len(failedOps), failedOps)
	}

	return results, err
}

// performRollback deletes the rows created by successful adds. Updates
// and deletes are not reversed: the original row state is gone once
// the server applied them.
func (t *BatchTransaction) performRollback(ctx context.Context) {
	var rollbackOps []BatchOperation

	for index, result := range t.results {
		if !result.Success {
			continue
		}

		original := t.operations[index]
		if original.Action != BatchAdd {
			continue
		}

		ids, ok := result.Data.([]int)
		if !ok || len(ids) == 0 {
			continue
		}

		rollbackOps = append(rollbackOps, BatchOperation{
			ID:     "rollback_" + original.ID,
			Action: BatchDelete,
			Doc:    original.Doc,
			Table:  original.Table,
			Data:   ids,
		})
	}

	// Execute rollback operations if any
	if len(rollbackOps) > 0 {
		_, _ = t.executor.Execute(ctx, rollbackOps)
	}
}
