package market

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Fetcher pulls daily klines and realtime quotes from the Sina finance API.
// Fetched histories are cached in an LRU keyed by symbol+days so repeated
// batch runs do not hammer the upstream.
type Fetcher struct {
	client *http.Client
	cache  *lru.Cache[string, []KLine]
}

// NewFetcher creates a Fetcher with the given history cache size.
func NewFetcher(cacheSize int) (*Fetcher, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, []KLine](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  cache,
	}, nil
}

type sinaKLine struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// History fetches up to days daily bars for symbol, ascending by date.
func (f *Fetcher) History(symbol string, days int) ([]KLine, error) {
	key := fmt.Sprintf("%s:%d", symbol, days)
	if bars, ok := f.cache.Get(key); ok {
		return bars, nil
	}

	// scale=240 is daily
	url := fmt.Sprintf("http://money.finance.sina.com.cn/quotes_service/api/json_v2.php/CN_MarketData.getKLineData?symbol=%s&scale=240&ma=no&datalen=%d", symbol, days)
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw []sinaKLine
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode kline response: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	bars := make([]KLine, 0, len(raw))
	for _, d := range raw {
		open, _ := strconv.ParseFloat(d.Open, 64)
		high, _ := strconv.ParseFloat(d.High, 64)
		low, _ := strconv.ParseFloat(d.Low, 64)
		closePrice, _ := strconv.ParseFloat(d.Close, 64)
		volume, _ := strconv.ParseInt(d.Volume, 10, 64)

		var ts time.Time
		if len(d.Day) > 10 {
			ts, _ = time.ParseInLocation("2006-01-02 15:04:05", d.Day, time.Local)
		} else {
			ts, _ = time.ParseInLocation("2006-01-02", d.Day, time.Local)
		}

		bars = append(bars, KLine{
			Symbol:    symbol,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			Timestamp: ts,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	bars, _ = CleanBars(bars)
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	f.cache.Add(key, bars)
	return bars, nil
}

// Quote fetches the latest realtime quote for symbol. The Sina endpoint
// responds in GBK, so the body goes through a transform reader first.
func (f *Fetcher) Quote(symbol string) (*Tick, error) {
	url := fmt.Sprintf("http://hq.sinajs.cn/list=%s", symbol)
	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("Referer", "http://finance.sina.com.cn")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	utf8Reader := transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder())
	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(string(body), "\"")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid response from sina api")
	}
	fields := strings.Split(parts[1], ",")
	if len(fields) < 32 {
		return nil, fmt.Errorf("unexpected data format from sina api")
	}

	open, _ := strconv.ParseFloat(fields[1], 64)
	prevClose, _ := strconv.ParseFloat(fields[2], 64)
	curr, _ := strconv.ParseFloat(fields[3], 64)
	high, _ := strconv.ParseFloat(fields[4], 64)
	low, _ := strconv.ParseFloat(fields[5], 64)
	volume, _ := strconv.ParseInt(fields[8], 10, 64)

	ts, _ := time.ParseInLocation("2006-01-02 15:04:05", fields[30]+" "+fields[31], time.Local)

	changePct := 0.0
	if prevClose != 0 {
		changePct = (curr - prevClose) / prevClose * 100
	}

	return &Tick{
		Symbol:    symbol,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     curr,
		PrevClose: prevClose,
		ChangePct: changePct,
		Volume:    volume,
		Timestamp: ts,
	}, nil
}
