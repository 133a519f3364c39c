package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/alfarreca/marketscan/internal/model"
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 5 // requests per second
)

// YahooFetcher implements Fetcher against the Yahoo Finance public API.
// All requests pass the rate limiter before leaving; failures inside one
// call are retried per the policy.
type YahooFetcher struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	timeout    time.Duration
	log        zerolog.Logger
}

// Option configures the YahooFetcher.
type Option func(*YahooFetcher)

// WithBaseURL points the fetcher at a different host (tests).
func WithBaseURL(baseURL string) Option {
	return func(f *YahooFetcher) { f.baseURL = baseURL }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *YahooFetcher) { f.httpClient = c }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps int) Option {
	return func(f *YahooFetcher) { f.limiter = rate.NewLimiter(rate.Limit(rps), rps) }
}

// WithRetryPolicy overrides the backoff policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *YahooFetcher) { f.retry = p }
}

// WithRequestTimeout bounds each individual HTTP request.
func WithRequestTimeout(d time.Duration) Option {
	return func(f *YahooFetcher) { f.timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *YahooFetcher) { f.log = log.With().Str("component", "yahoo").Logger() }
}

// NewYahooFetcher creates a fetcher with sane defaults.
func NewYahooFetcher(opts ...Option) *YahooFetcher {
	f := &YahooFetcher{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateLimit),
		retry:      DefaultRetryPolicy(),
		timeout:    defaultTimeout,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the chart API response shape.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooSummary is the subset of the quoteSummary response we read.
type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price *struct {
				LongName string `json:"longName"`
			} `json:"price"`
			SummaryProfile *struct {
				Sector string `json:"sector"`
			} `json:"summaryProfile"`
			DefaultKeyStatistics *struct {
				SharesOutstanding *rawValue `json:"sharesOutstanding"`
			} `json:"defaultKeyStatistics"`
			FinancialData *struct {
				FreeCashflow *rawValue `json:"freeCashflow"`
			} `json:"financialData"`
			SummaryDetail *struct {
				MarketCap     *rawValue `json:"marketCap"`
				AverageVolume *rawValue `json:"averageVolume"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// rawValue is Yahoo's {raw, fmt} number wrapper.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v *rawValue) value() *float64 {
	if v == nil {
		return nil
	}
	return v.Raw
}

// lookbackRange maps the configured lookback onto a chart range parameter.
// Unrecognized values fall back to one year.
func lookbackRange(lookback string) string {
	switch lookback {
	case "1mo", "3mo", "6mo", "1y", "2y", "5y":
		return lookback
	case "12mo":
		return "1y"
	default:
		return "1y"
	}
}

// FetchHistory retrieves daily OHLCV bars over the lookback period.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol, lookback string) (*model.PriceSeries, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.baseURL, url.PathEscape(symbol), lookbackRange(lookback))

	var series *model.PriceSeries
	err := withRetry(ctx, f.log, f.retry, func() error {
		body, err := f.get(ctx, endpoint)
		if err != nil {
			return err
		}
		series, err = parseChart(symbol, body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}
	return series, nil
}

// FetchInfo retrieves the static attribute snapshot. Fields absent from the
// response stay nil.
func (f *YahooFetcher) FetchInfo(ctx context.Context, symbol string) (*model.InfoSnapshot, error) {
	endpoint := fmt.Sprintf(
		"%s/v10/finance/quoteSummary/%s?modules=price,summaryProfile,summaryDetail,defaultKeyStatistics,financialData",
		f.baseURL, url.PathEscape(symbol))

	var info *model.InfoSnapshot
	err := withRetry(ctx, f.log, f.retry, func() error {
		body, err := f.get(ctx, endpoint)
		if err != nil {
			return err
		}
		info, err = parseSummary(body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch info %s: %w", symbol, err)
	}
	return info, nil
}

// get performs one rate-limited, timeout-bounded request and returns the
// response body.
func (f *YahooFetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(body)}
	}
	return body, nil
}

func parseChart(symbol string, body []byte) (*model.PriceSeries, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart api: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 ||
		len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := deref(quote.Open, i)
		h := deref(quote.High, i)
		l := deref(quote.Low, i)
		c := deref(quote.Close, i)
		if c == 0 && o == 0 && h == 0 && l == 0 {
			// Null bar (holiday / halted session).
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: deref(quote.Volume, i),
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}, nil
}

func deref(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func parseSummary(body []byte) (*model.InfoSnapshot, error) {
	var summary yahooSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("summary api: %s", summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, ErrNoData
	}

	r := summary.QuoteSummary.Result[0]
	info := &model.InfoSnapshot{FetchedAt: time.Now()}
	if r.Price != nil {
		info.Name = r.Price.LongName
	}
	if r.SummaryProfile != nil {
		info.Sector = r.SummaryProfile.Sector
	}
	if r.DefaultKeyStatistics != nil {
		info.SharesOutstanding = r.DefaultKeyStatistics.SharesOutstanding.value()
	}
	if r.FinancialData != nil {
		info.FreeCashFlow = r.FinancialData.FreeCashflow.value()
	}
	if r.SummaryDetail != nil {
		info.MarketCap = r.SummaryDetail.MarketCap.value()
		info.AvgVolume = r.SummaryDetail.AverageVolume.value()
	}
	return info, nil
}
