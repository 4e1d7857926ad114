package patch

import "ghostpatch/internal/anomaly"

// fixTemplate is the before/after code pair a smell category's stock repair
// rewrites. The diff between the two becomes the change's diff text.
type fixTemplate struct {
	path        string
	before      string
	after       string
	description string
	explanation string
	notes       []string
}

var fixTemplates = map[anomaly.SmellCategory]fixTemplate{
	anomaly.SmellLeak: {
		path: "src/haunt/registry.js",
		before: `function openChannel(spirit) {
  const handle = acquire(spirit);
  listeners.push(handle);
  return handle;
}
`,
		after: `function openChannel(spirit) {
  const handle = acquire(spirit);
  listeners.push(handle);
  handle.onClose(() => release(handle));
  return handle;
}
`,
		description: "Release channel handles when they close",
		explanation: "Handles were acquired but never released, so every opened channel lingered forever and slowly drained the host.",
		notes: []string{
			"Every acquire needs a paired release on some lifecycle edge.",
			"Leaks rarely crash immediately; they erode stability over time.",
		},
	},
	anomaly.SmellRace: {
		path: "src/haunt/manifest.js",
		before: `async function manifest(spirit) {
  if (!cache[spirit.id]) {
    cache[spirit.id] = await summon(spirit);
  }
  return cache[spirit.id];
}
`,
		after: `const pending = new Map();

async function manifest(spirit) {
  if (!pending.has(spirit.id)) {
    pending.set(spirit.id, summon(spirit));
  }
  return pending.get(spirit.id);
}
`,
		description: "Deduplicate concurrent summons through a pending map",
		explanation: "Two overlapping calls both saw an empty cache and summoned twice. Caching the promise instead of the result removes the window.",
		notes: []string{
			"Check-then-act over shared state is a race unless the check and act are one step.",
			"Caching the in-flight promise is the standard dedup idiom.",
		},
	},
	anomaly.SmellDeadCode: {
		path: "src/haunt/cleanup.js",
		before: `function sweep(rooms) {
  return rooms.filter(r => r.active);
  for (const r of rooms) {
    r.markSwept();
  }
}
`,
		after: `function sweep(rooms) {
  const active = rooms.filter(r => r.active);
  for (const r of active) {
    r.markSwept();
  }
  return active;
}
`,
		description: "Remove unreachable sweep marking and wire it back in",
		explanation: "Everything after the early return was dead. The marking loop never ran, so swept rooms were never recorded.",
		notes: []string{
			"Code after an unconditional return is unreachable.",
			"Dead code hides intent; either delete it or make it live again.",
		},
	},
	anomaly.SmellInjection: {
		path: "src/haunt/banish.js",
		before: `function renderName(spirit) {
  banner.innerHTML = "<b>" + spirit.name + "</b>";
}
`,
		after: `function renderName(spirit) {
  const b = document.createElement("b");
  b.textContent = spirit.name;
  banner.replaceChildren(b);
}
`,
		description: "Render spirit names as text, not markup",
		explanation: "Names flowed straight into innerHTML, so a crafted name executed in the page. textContent treats it as data.",
		notes: []string{
			"Untrusted strings must never reach an HTML sink unescaped.",
			"Prefer textContent/DOM building over string-built markup.",
		},
	},
	anomaly.SmellHotLoop: {
		path: "src/haunt/pulse.js",
		before: `function watchPulse(spirit) {
  while (true) {
    if (spirit.pulse()) break;
  }
}
`,
		after: `function watchPulse(spirit, done) {
  const timer = setInterval(() => {
    if (spirit.pulse()) {
      clearInterval(timer);
      done();
    }
  }, 250);
}
`,
		description: "Replace the busy-wait with a cleared interval",
		explanation: "The busy loop pinned a core while waiting on the pulse. Polling on an interval yields the thread and can be cancelled.",
		notes: []string{
			"Busy-waiting starves everything sharing the thread.",
			"Timers must always have a clear path.",
		},
	},
	anomaly.SmellLegacy: {
		path: "src/haunt/router.js",
		before: `function route(ev) {
  if (ev.k == 1) { doA(ev); } else {
    if (ev.k == 2) { doB(ev); } else {
      if (ev.k == 3) { doC(ev); } else { doA(ev); }
    }
  }
}
`,
		after: `const handlers = { 1: doA, 2: doB, 3: doC };

function route(ev) {
  (handlers[ev.k] || doA)(ev);
}
`,
		description: "Flatten the nested dispatch into a handler table",
		explanation: "Three levels of nested conditionals encoded a lookup. A table makes the dispatch data and the default explicit.",
		notes: []string{
			"Deep conditional ladders are usually a lookup in disguise.",
			"Refactors should shrink the decision surface, not move it.",
		},
	},
}

// templateFor returns the smell's stock template; every closed-enum category
// has one, the default branch guards content drift.
func templateFor(smell anomaly.SmellCategory) fixTemplate {
	if t, ok := fixTemplates[smell]; ok {
		return t
	}
	return fixTemplates[anomaly.SmellLegacy]
}
