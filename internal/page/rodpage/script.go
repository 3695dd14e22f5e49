package rodpage

// runtimeJS is injected once per document. It keeps a registry mapping
// node handles to integer ids so every later call can address a node,
// classifies send attempts in the capturing phase, and reports consumed
// events and document mutations through the exposed emit binding.
//
// Send attempts are consumed synchronously here; the verdict round trip
// to the controller is asynchronous, so a Pass verdict is honored by
// replaying the gesture natively with interception bypassed.
const runtimeJS = `() => {
	if (window.__pv) return;

	const reg = new Map();
	const ids = new WeakMap();
	let next = 1;

	const put = (n) => {
		if (!n) return 0;
		let id = ids.get(n);
		if (!id) {
			id = next++;
			ids.set(n, id);
			reg.set(id, n);
		}
		return id;
	};
	const get = (id) => {
		if (!id) return document;
		return reg.get(id) || null;
	};

	const SEND_WORDS = ['send', 'submit', '전송', '보내기'];

	const editable = (n) => {
		if (!n || n.nodeType !== 1) return false;
		const tag = n.tagName;
		if (tag === 'TEXTAREA') return true;
		if (tag === 'INPUT') {
			const t = (n.getAttribute('type') || 'text').toLowerCase();
			return t === 'text' || t === 'search' || t === '';
		}
		return !!n.isContentEditable;
	};

	const visible = (n) => {
		if (!n || n.nodeType !== 1) return false;
		const r = n.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};

	const value = (n) => {
		if (!n) return '';
		if (n.tagName === 'TEXTAREA' || n.tagName === 'INPUT') return n.value || '';
		return n.innerText || n.textContent || '';
	};

	const looksLikeSend = (n) => {
		if (!n || !n.closest) return false;
		const el = n.closest('button, [role="button"], [type="submit"]');
		if (!el) return false;
		const has = (s) => {
			s = (s || '').toLowerCase();
			return SEND_WORDS.some((w) => s.includes(w));
		};
		if (has(el.getAttribute('data-testid'))) return true;
		if (has(el.getAttribute('aria-label'))) return true;
		if (has(el.getAttribute('title'))) return true;
		if ((el.getAttribute('type') || '').toLowerCase() === 'submit') return true;
		if (has(el.textContent)) return true;
		const svg = el.querySelector('svg');
		if (svg && has(svg.getAttribute('aria-label'))) return true;
		return false;
	};

	const isSendAttempt = (ev) => {
		if (ev.type === 'submit') return true;
		if (ev.type === 'keydown') {
			if (ev.key !== 'Enter') return false;
			if (ev.shiftKey || ev.altKey || ev.isComposing) return false;
			return editable(ev.target) || (ev.target && ev.target.closest && !!ev.target.closest('form'));
		}
		if (ev.type === 'click') return looksLikeSend(ev.target);
		return false;
	};

	const emit = (payload) => {
		if (window.__pvEmit) window.__pvEmit(payload);
	};

	let armed = false;
	const onEvent = (ev) => {
		if (window.__pv.bypass || !armed) return;
		if (!isSendAttempt(ev)) return;
		ev.preventDefault();
		ev.stopImmediatePropagation();
		let target = ev.target;
		if (!target || target.nodeType !== 1) target = document.body;
		emit({
			type: 'event',
			kind: ev.type,
			key: ev.key || '',
			shift: !!ev.shiftKey,
			ctrl: !!ev.ctrlKey,
			alt: !!ev.altKey,
			meta: !!ev.metaKey,
			composing: !!ev.isComposing,
			trusted: !!ev.isTrusted,
			target: put(target),
		});
	};
	for (const t of ['keydown', 'click', 'submit']) {
		window.addEventListener(t, onEvent, true);
	}

	let observer = null;
	const observe = () => {
		if (observer) return;
		observer = new MutationObserver((muts) => {
			for (const m of muts) {
				const added = [];
				for (const n of m.addedNodes) {
					if (n.nodeType === 1) added.push(put(n));
				}
				let target = 0;
				if (m.type === 'characterData' && m.target.parentElement) {
					target = put(m.target.parentElement);
				}
				if (added.length || target) emit({type: 'mutation', added, target});
			}
		});
		observer.observe(document.documentElement, {
			childList: true,
			subtree: true,
			characterData: true,
		});
	};
	const unobserve = () => {
		if (observer) {
			observer.disconnect();
			observer = null;
		}
	};

	const replay = (id, kind) => {
		const n = get(id);
		if (!n) return false;
		window.__pv.bypass = true;
		try {
			if (kind === 'submit') {
				const form = n.tagName === 'FORM' ? n : (n.form || (n.closest && n.closest('form')));
				if (form && form.requestSubmit) { form.requestSubmit(); return true; }
				if (form) { form.submit(); return true; }
				return false;
			}
			if (kind === 'click') { n.click(); return true; }
			// keydown Enter has no scriptable native action; submit the
			// enclosing form instead.
			const form = n.form || (n.closest && n.closest('form'));
			if (form && form.requestSubmit) { form.requestSubmit(); return true; }
			if (form) { form.submit(); return true; }
			return false;
		} finally {
			window.__pv.bypass = false;
		}
	};

	window.__pv = {
		bypass: false,
		put, get,
		arm: () => { armed = true; },
		disarm: () => { armed = false; },
		observe, unobserve, replay,

		find: (id, sel) => {
			const s = get(id);
			return s ? put(s.querySelector(sel)) : 0;
		},
		findAll: (id, sel) => {
			const s = get(id);
			if (!s) return [];
			const out = [];
			for (const n of s.querySelectorAll(sel)) out.push(put(n));
			return out;
		},
		active: () => {
			const n = document.activeElement;
			return n && n !== document.body ? put(n) : 0;
		},
		tag: (id) => {
			const n = get(id);
			return n && n.tagName ? n.tagName.toLowerCase() : '';
		},
		attr: (id, name) => {
			const n = get(id);
			if (!n || !n.getAttribute || !n.hasAttribute(name)) return null;
			return n.getAttribute(name);
		},
		text: (id) => {
			const n = get(id);
			return n ? (n.innerText || n.textContent || '') : '';
		},
		value: (id) => value(get(id)),
		editable: (id) => editable(get(id)),
		visible: (id) => visible(get(id)),
		connected: (id) => {
			const n = get(id);
			return !!(n && n.isConnected);
		},
		closest: (id, sel) => {
			const n = get(id);
			return n && n.closest ? put(n.closest(sel)) : 0;
		},
		form: (id) => {
			const n = get(id);
			if (!n) return 0;
			return put(n.form || (n.closest && n.closest('form')));
		},
		shadow: (id) => {
			const n = get(id);
			return n && n.shadowRoot ? put(n.shadowRoot) : 0;
		},

		setNative: (id, text) => {
			const n = get(id);
			if (!n) return false;
			const tag = n.tagName;
			if (tag === 'TEXTAREA' || tag === 'INPUT') {
				const proto = tag === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
				const desc = Object.getOwnPropertyDescriptor(proto, 'value');
				if (desc && desc.set) desc.set.call(n, text);
				else n.value = text;
				return true;
			}
			if (n.isContentEditable) {
				n.innerText = text;
				return true;
			}
			return false;
		},
		insertText: (id, text) => {
			const n = get(id);
			if (!n || !n.focus) return false;
			n.focus();
			if (n.isContentEditable) document.execCommand('selectAll', false, null);
			else if (typeof n.select === 'function') n.select();
			return document.execCommand('insertText', false, text);
		},
		setFiles: (id, files) => {
			const n = get(id);
			if (!n || n.tagName !== 'INPUT') return false;
			const dt = new DataTransfer();
			for (const f of files) {
				const bin = atob(f.data);
				const bytes = new Uint8Array(bin.length);
				for (let i = 0; i < bin.length; i++) bytes[i] = bin.charCodeAt(i);
				dt.items.add(new File([bytes], f.name, {type: f.mime}));
			}
			n.files = dt.files;
			n.dispatchEvent(new Event('input', {bubbles: true}));
			n.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		},
		click: (id) => {
			const n = get(id);
			if (!n || !n.click) return false;
			n.click();
			return true;
		},
		dispatch: (id, kind, key, mods) => {
			const n = get(id) || document.body;
			let ev;
			if (kind === 'keydown') {
				ev = new KeyboardEvent('keydown', {
					key,
					bubbles: true,
					cancelable: true,
					shiftKey: !!mods.shift,
					ctrlKey: !!mods.ctrl,
					altKey: !!mods.alt,
					metaKey: !!mods.meta,
				});
			} else if (kind === 'click') {
				ev = new MouseEvent('click', {bubbles: true, cancelable: true});
			} else {
				ev = new Event(kind, {bubbles: true, cancelable: true});
			}
			n.dispatchEvent(ev);
			return true;
		},
		submit: (id) => {
			const n = get(id);
			if (!n || n.tagName !== 'FORM') return false;
			if (n.requestSubmit) n.requestSubmit();
			else n.submit();
			return true;
		},
	};
}`
