package browser

import (
	"fmt"

	"pumpfun-chat-relay/internal/scrape"
)

// chatScrapeJS выполняет в живом DOM тот же отбор контейнера, что и
// серверный разбор HTML: кандидаты по якорям профилей и по полю ввода,
// затем извлечение сообщений вокруг якорей. Веса подставляются из
// internal/scrape, поэтому обе ветви эвристики считают одинаково.
// Возвращает JSON-строку с массивом сообщений.
const chatScrapeJS = `(() => {
  const PROFILE = '/profile/';
  const MAX_DEPTH = %d;
  const PANEL_CLASSES = ['rounded', 'overflow-', 'shadow'];
  const SEND_SCORE = %d;
  const CHAT_SCORE = %d;
  const TRADE_PENALTY = %d;
  const preferChat = %t;
  const maxMessages = %d;

  const anchors = Array.from(document.querySelectorAll('a[href*="' + PROFILE + '"]'));
  const composers = Array.from(document.querySelectorAll('textarea, input[type="text"], input:not([type]), [contenteditable="true"]'));

  const classOf = (el) => {
    const cls = (el.className && el.className.baseVal) || el.className || '';
    return typeof cls === 'string' ? cls : '';
  };
  const isPanel = (el) => PANEL_CLASSES.some((m) => classOf(el).includes(m));
  const countAnchors = (el) => el.querySelectorAll('a[href*="' + PROFILE + '"]').length;
  const hasSendButton = (el) => Array.from(el.querySelectorAll('button')).some((b) =>
    (b.getAttribute('type') || '').toLowerCase() === 'submit' ||
    ((b.innerText || '') + ' ' + (b.getAttribute('aria-label') || '')).toLowerCase().includes('send'));
  const hasChatWord = (el) =>
    classOf(el).toLowerCase().includes('chat') || (el.innerText || '').toLowerCase().includes('chat');
  const countTradeWords = (el) => {
    const text = el.innerText || '';
    return (text.match(/Buy/g) || []).length + (text.match(/Sell/g) || []).length;
  };

  const bestByAnchors = () => {
    let best = null, bestScore = 0;
    for (const a of anchors) {
      let el = a.parentElement;
      for (let d = 0; d < MAX_DEPTH && el; d++, el = el.parentElement) {
        const score = countAnchors(el);
        if (best === null || score > bestScore) { best = el; bestScore = score; }
        if (isPanel(el)) break;
      }
    }
    return { el: best, score: bestScore };
  };

  const bestByComposer = () => {
    let best = null, bestScore = 0;
    for (const c of composers) {
      let el = c.parentElement;
      for (let d = 0; d < MAX_DEPTH && el; d++, el = el.parentElement) {
        let score = 0;
        if (hasSendButton(el)) score += SEND_SCORE;
        if (hasChatWord(el)) score += CHAT_SCORE;
        score -= TRADE_PENALTY * countTradeWords(el);
        if (best === null || score > bestScore) { best = el; bestScore = score; }
        if (isPanel(el)) break;
      }
    }
    return { el: best, score: bestScore };
  };

  const byAnchor = bestByAnchors();
  const byComposer = bestByComposer();
  let container = null;
  if (preferChat && byComposer.el) container = byComposer.el;
  else if (byComposer.el && byComposer.score > byAnchor.score) container = byComposer.el;
  else container = byAnchor.el || byComposer.el;
  if (!container && composers.length) container = composers[0].parentElement;
  if (!container) container = document.querySelector('[class*="side-panel"]');
  if (!container) return JSON.stringify([]);

  const out = [];
  const seen = new Set();
  for (const a of container.querySelectorAll('a[href*="' + PROFILE + '"]')) {
    const username = (a.innerText || '').trim();
    const profileUrl = a.href || '';
    let block = a.parentElement;
    for (let d = 0; d < MAX_DEPTH && block; d++, block = block.parentElement) {
      if (/^(div|li|article|section)$/i.test(block.tagName)) break;
    }
    let message = '';
    if (block) {
      for (const leaf of block.querySelectorAll('p, span, div, li')) {
        if (leaf.children.length) continue;
        const t = (leaf.innerText || '').replace(username, '').trim();
        if (t.length > message.length) message = t;
      }
      if (!message) message = (block.innerText || '').replace(username, '').trim();
    }
    if (!username && !message) continue;
    const key = profileUrl + '|' + username + '|' + message;
    if (seen.has(key)) continue;
    seen.add(key);
    out.push({ username, profileUrl, message });
  }
  return JSON.stringify(out.slice(-maxMessages));
})()`

// ChatScrapeScript собирает выражение для Runtime.evaluate с параметрами
// отбора контейнера и лимита сообщений.
func ChatScrapeScript(preferChat bool, max int) string {
	return fmt.Sprintf(chatScrapeJS, scrape.MaxAncestorDepth,
		scrape.SendButtonScore, scrape.ChatWordScore, scrape.TradeWordPenalty,
		preferChat, max)
}
