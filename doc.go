// Package performance computes the financial performance of investment
// portfolios from their buy and sell history.
//
// The engine is made of small stateless parts:
//   - Position Ledger: a FIFO cost-basis fold over a holding's transactions
//     (LedgerState.Apply, Replay) splitting gains into realized and
//     unrealized portions.
//   - Holding Aggregator: values a ledger result at a current price
//     (Evaluate).
//   - Historical Series Reconstructor: rebuilds the daily value of past
//     positions at current prices over a date window (Reconstruct).
//   - Portfolio Composer: prices every symbol once, evaluates holdings
//     concurrently and assembles the PerformanceReport (Composer).
//
// Storage and prices are collaborators behind the Repository and PriceOracle
// interfaces. The store package provides repositories, this package provides
// MockOracle, FallbackOracle and QuoteOracle.
//
// All amounts use fixed-point decimals, rounding is left to presentation.
package performance
