package cdp

// jsRuntime installs the page-side chart manager. Every entry point
// returns the standard envelope {ok, data, error_code, error_message} so
// the Go side can map failures uniformly; a missing pane reports the
// "disposed" code, which maps onto render.ErrDisposed.
const jsRuntime = `
(function () {
  if (window.__charts) return;

  var lineStyles = [0, 2]; // solid, dotted

  function envelope(fn) {
    try {
      return { ok: true, data: fn() };
    } catch (e) {
      var code = e && e.__code ? e.__code : "eval_error";
      return { ok: false, error_code: code, error_message: String(e && e.message ? e.message : e) };
    }
  }

  function fail(code, message) {
    var e = new Error(message);
    e.__code = code;
    throw e;
  }

  var panes = {};

  function paneOf(id) {
    var p = panes[id];
    if (!p) fail("disposed", "pane gone: " + id);
    return p;
  }

  function seriesOf(p, id) {
    var s = p.series[id];
    if (!s) fail("series_not_found", "series gone: " + id);
    return s;
  }

  function post(payload) {
    if (typeof window.__chartRangeEvent === "function") {
      window.__chartRangeEvent(JSON.stringify(payload));
    }
  }

  window.__charts = {
    createPane: function (id, containerId, width, height, timeVisible) {
      return envelope(function () {
        if (typeof LightweightCharts === "undefined") {
          fail("library_missing", "lightweight-charts bundle not loaded");
        }
        var el = document.getElementById(containerId);
        if (!el) {
          el = document.createElement("div");
          el.id = containerId;
          document.body.appendChild(el);
        }
        var chart = LightweightCharts.createChart(el, {
          width: width || el.clientWidth || 800,
          height: height || el.clientHeight || 400,
          timeScale: { timeVisible: !!timeVisible, secondsVisible: false }
        });
        var p = { chart: chart, el: el, series: {} };
        panes[id] = p;

        chart.timeScale().subscribeVisibleTimeRangeChange(function (r) {
          if (r) post({ pane: id, kind: "time", from: r.from, to: r.to });
        });
        chart.timeScale().subscribeVisibleLogicalRangeChange(function (r) {
          if (r) post({ pane: id, kind: "logical", from: r.from, to: r.to });
        });
        return null;
      });
    },

    dispose: function (id) {
      return envelope(function () {
        var p = panes[id];
        if (!p) return null;
        p.chart.remove();
        delete panes[id];
        return null;
      });
    },

    resize: function (id, width, height) {
      return envelope(function () {
        paneOf(id).chart.resize(width, height);
        return null;
      });
    },

    addSeries: function (paneId, seriesId, kind, opts) {
      return envelope(function () {
        var p = paneOf(paneId);
        var options = {
          title: opts.title || "",
          priceScaleId: opts.priceScaleId || undefined
        };
        var s;
        if (kind === "candlestick") {
          s = p.chart.addCandlestickSeries(options);
        } else if (kind === "histogram") {
          options.color = opts.color || undefined;
          s = p.chart.addHistogramSeries(options);
        } else {
          options.color = opts.color || undefined;
          options.lineWidth = opts.width || 1;
          options.lineStyle = lineStyles[opts.style] || 0;
          s = p.chart.addLineSeries(options);
        }
        if (opts.margins && opts.priceScaleId) {
          s.priceScale().applyOptions({ scaleMargins: { top: opts.margins.top, bottom: opts.margins.bottom } });
        }
        p.series[seriesId] = s;
        return null;
      });
    },

    removeSeries: function (paneId, seriesId) {
      return envelope(function () {
        var p = paneOf(paneId);
        var s = seriesOf(p, seriesId);
        p.chart.removeSeries(s);
        delete p.series[seriesId];
        return null;
      });
    },

    setData: function (paneId, seriesId, data) {
      return envelope(function () {
        seriesOf(paneOf(paneId), seriesId).setData(data);
        return null;
      });
    },

    addPriceLine: function (paneId, seriesId, line) {
      return envelope(function () {
        seriesOf(paneOf(paneId), seriesId).createPriceLine({
          price: line.price,
          color: line.color || "#787b86",
          lineStyle: lineStyles[line.style] || 0,
          lineWidth: 1,
          axisLabelVisible: true,
          title: line.title || ""
        });
        return null;
      });
    },

    priceAt: function (paneId, seriesId, y) {
      return envelope(function () {
        var price = seriesOf(paneOf(paneId), seriesId).coordinateToPrice(y);
        return { price: price === null ? null : price };
      });
    },

    timeAt: function (paneId, x) {
      return envelope(function () {
        var t = paneOf(paneId).chart.timeScale().coordinateToTime(x);
        return { time: t === null ? null : t };
      });
    },

    visibleRange: function (paneId) {
      return envelope(function () {
        var r = paneOf(paneId).chart.timeScale().getVisibleRange();
        return r ? { from: r.from, to: r.to } : { from: null, to: null };
      });
    },

    setVisibleRange: function (paneId, from, to) {
      return envelope(function () {
        paneOf(paneId).chart.timeScale().setVisibleRange({ from: from, to: to });
        return null;
      });
    },

    visibleLogicalRange: function (paneId) {
      return envelope(function () {
        var r = paneOf(paneId).chart.timeScale().getVisibleLogicalRange();
        return r ? { from: r.from, to: r.to } : { from: null, to: null };
      });
    },

    setVisibleLogicalRange: function (paneId, from, to) {
      return envelope(function () {
        paneOf(paneId).chart.timeScale().setVisibleLogicalRange({ from: from, to: to });
        return null;
      });
    },

    layout: function (containerId) {
      return envelope(function () {
        var el = document.getElementById(containerId);
        if (!el) return { width: 0, height: 0, hidden: false, opacity: 1 };
        var cs = window.getComputedStyle(el);
        var rect = el.getBoundingClientRect();
        return {
          width: Math.round(rect.width),
          height: Math.round(rect.height),
          hidden: cs.display === "none" || cs.visibility === "hidden",
          opacity: parseFloat(cs.opacity)
        };
      });
    }
  };
})();
`
