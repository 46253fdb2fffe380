package graph

import (
	"context"
	"strings"
	"sync"
)

// MemoryClient is an in-memory Client for repository tests. Results can be
// bound to a query fragment with OnRead/OnWrite, which keeps concurrent
// callers deterministic; otherwise pushed results are served in FIFO order.
type MemoryClient struct {
	mu           sync.Mutex
	writeCalls   []ExecutedQuery
	readCalls    []ExecutedQuery
	readResults  []Result
	writeResults []Result
	readStubs    []stub
	writeStubs   []stub
	err          error
	connectivity error
	closed       bool
}

type stub struct {
	fragment string
	result   Result
	err      error
}

// ExecutedQuery captures a cypher statement and parameters executed against the graph.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// WithError makes every subsequent query fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return the supplied error.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// OnRead answers every read whose cypher contains fragment.
func (m *MemoryClient) OnRead(fragment string, res Result, err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readStubs = append(m.readStubs, stub{fragment: fragment, result: res, err: err})
	return m
}

// OnWrite answers every write whose cypher contains fragment.
func (m *MemoryClient) OnWrite(fragment string, res Result, err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeStubs = append(m.writeStubs, stub{fragment: fragment, result: res, err: err})
	return m
}

// PushReadResult queues a result for the next unmatched ExecuteRead call.
func (m *MemoryClient) PushReadResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readResults = append(m.readResults, res)
}

// PushWriteResult queues a result for the next unmatched ExecuteWrite call.
func (m *MemoryClient) PushWriteResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeResults = append(m.writeResults, res)
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls = append(m.writeCalls, ExecutedQuery{Query: cypher, Params: cloneMap(params)})
	return m.answer(cypher, m.writeStubs, &m.writeResults)
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls = append(m.readCalls, ExecutedQuery{Query: cypher, Params: cloneMap(params)})
	return m.answer(cypher, m.readStubs, &m.readResults)
}

// answer must be called with m.mu held.
func (m *MemoryClient) answer(cypher string, stubs []stub, queue *[]Result) (Result, error) {
	if m.err != nil {
		return Result{}, m.err
	}
	for _, s := range stubs {
		if strings.Contains(cypher, s.fragment) {
			return s.result, s.err
		}
	}
	if len(*queue) == 0 {
		return Result{}, nil
	}
	res := (*queue)[0]
	*queue = (*queue)[1:]
	return res, nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// WriteCalls returns a snapshot of executed write queries.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.writeCalls...)
}

// ReadCalls returns a snapshot of executed read queries.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.readCalls...)
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
