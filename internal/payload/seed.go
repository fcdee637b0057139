package payload

// DefaultSeed is a syntax-dense script fragment used by mutate mode when no
// seed file is configured. It packs literals, closures, template strings,
// regexes and control flow into a small buffer so single-byte substitutions
// land on interesting grammar productions.
const DefaultSeed = `"use strict";const k={a:[1,2.5e-3,0xff,0b101],b:` + "`tpl ${1+2} \\u2603`" + `};
let r=/^(a|b){2,}[^c]\d+$/gim;function*g(n){for(let i=0;i<n;i++)yield i**2;}
class P extends Object{#x=1;static s=[...g(4)];get x(){return this.#x??0;}}
const f=async(x=>{try{throw{code:x}}catch({code}){return code|0}finally{}});
(function(){var o={["k"+1]:null,...k};label:for(const v of P.s){if(v%2)continue label;}})();
export default (typeof f==='function')?new P():void 0;`
